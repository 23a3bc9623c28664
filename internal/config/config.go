package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL string
	HealthURL  string
	LogLevel   string
	LogPath    string

	HTTPTimeoutSeconds int
	PollIntervalMS     int

	StatePath string
	CachePath string

	MetricsAddr string

	PageLimit         int
	UnreadOnlyDefault bool

	ReplyRatePerMinute int
	ReplyBurst         int

	RetryMaxAttempts int
	PreviewMaxChars  int
}

func Load() Config {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	return Config{
		APIBaseURL: mustEnv("API_BASE_URL", "http://localhost:8000/api"),
		HealthURL:  mustEnv("HEALTH_URL", ""),
		LogLevel:   mustEnv("LOG_LEVEL", "info"),
		LogPath:    mustEnv("LOG_PATH", ""),

		HTTPTimeoutSeconds: mustEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		PollIntervalMS:     mustEnvInt("POLL_INTERVAL_MS", 5000),

		StatePath: mustEnv("STATE_PATH", "./data/state.yaml"),
		CachePath: mustEnv("CACHE_PATH", "./data/cache.db"),

		MetricsAddr: mustEnv("METRICS_ADDR", ""),

		PageLimit:         mustEnvInt("PAGE_LIMIT", 50),
		UnreadOnlyDefault: mustEnvBool("UNREAD_ONLY_DEFAULT", false),

		ReplyRatePerMinute: mustEnvInt("REPLY_RATE_PER_MINUTE", 3),
		ReplyBurst:         mustEnvInt("REPLY_BURST", 1),

		RetryMaxAttempts: mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		PreviewMaxChars:  mustEnvInt("PREVIEW_MAX_CHARS", 4000),
	}
}

// HealthBase resolves the health endpoint root. The backend serves
// /health beside the API prefix, not under it.
func (c Config) HealthBase() string {
	if c.HealthURL != "" {
		return c.HealthURL
	}
	return strings.TrimSuffix(strings.TrimRight(c.APIBaseURL, "/"), "/api")
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
