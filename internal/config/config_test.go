package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("POLL_INTERVAL_MS", "")
	t.Setenv("PAGE_LIMIT", "")
	t.Setenv("REPLY_RATE_PER_MINUTE", "")

	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("expected default api base, got %q", cfg.APIBaseURL)
	}
	if cfg.PollIntervalMS != 5000 {
		t.Fatalf("expected default poll interval 5000, got %d", cfg.PollIntervalMS)
	}
	if cfg.PageLimit != 50 {
		t.Fatalf("expected default page limit 50, got %d", cfg.PageLimit)
	}
	if cfg.ReplyRatePerMinute != 3 {
		t.Fatalf("expected default reply rate 3, got %d", cfg.ReplyRatePerMinute)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://assistant.example.com/api")
	t.Setenv("POLL_INTERVAL_MS", "1500")
	t.Setenv("UNREAD_ONLY_DEFAULT", "true")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "10")

	cfg := Load()
	if cfg.APIBaseURL != "https://assistant.example.com/api" {
		t.Fatalf("expected api base override, got %q", cfg.APIBaseURL)
	}
	if cfg.PollIntervalMS != 1500 {
		t.Fatalf("expected poll interval 1500, got %d", cfg.PollIntervalMS)
	}
	if !cfg.UnreadOnlyDefault {
		t.Fatalf("expected unread-only default override to be true")
	}
	if cfg.HTTPTimeoutSeconds != 10 {
		t.Fatalf("expected http timeout 10, got %d", cfg.HTTPTimeoutSeconds)
	}
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "soon")

	cfg := Load()
	if cfg.PollIntervalMS != 5000 {
		t.Fatalf("expected fallback poll interval 5000, got %d", cfg.PollIntervalMS)
	}
}

func TestHealthBaseDerivedFromAPIBase(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://assistant.local:9000/api")
	t.Setenv("HEALTH_URL", "")

	cfg := Load()
	if got := cfg.HealthBase(); got != "http://assistant.local:9000" {
		t.Fatalf("expected derived health base, got %q", got)
	}

	t.Setenv("HEALTH_URL", "http://probe.local:9100")
	cfg = Load()
	if got := cfg.HealthBase(); got != "http://probe.local:9100" {
		t.Fatalf("expected explicit health base, got %q", got)
	}
}
