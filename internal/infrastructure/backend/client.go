// Package backend is the single HTTP gateway to the assistant API.
// Every outbound request goes through one shared client that carries
// ambient cookie credentials, stamps request ids, measures the call and
// intercepts throttled responses to broadcast a rate-limit signal
// before the caller sees the failure.
package backend

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/observability/logging"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

const defaultTimeout = 30 * time.Second

type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api. Required.
	BaseURL string
	// HealthURL overrides the derived health root. The backend mounts
	// /health beside the API prefix, not under it.
	HealthURL string
	Timeout   time.Duration

	// Bus receives rate-limit signals. Optional; without it throttled
	// responses still fail with the rate-limited error kind.
	Bus     ports.EventBus
	Metrics *metrics.ClientMetrics
	Logger  *slog.Logger

	// Tokens enables the legacy bearer path for non-browser sessions.
	Tokens oauth2.TokenSource
	// Transport overrides the underlying round tripper in tests.
	Transport http.RoundTripper
}

type Client struct {
	baseURL   string
	healthURL string
	http      *http.Client
	logger    *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("backend: BaseURL is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	healthURL := strings.TrimRight(opts.HealthURL, "/")
	if healthURL == "" {
		healthURL = strings.TrimSuffix(baseURL, "/api")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard("backend")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build cookie jar: %w", err)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		baseURL:   baseURL,
		healthURL: healthURL,
		logger:    opts.Logger,
		http: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
			Transport: &signalTransport{
				base:    base,
				bus:     opts.Bus,
				metrics: opts.Metrics,
				logger:  opts.Logger,
				tokens:  opts.Tokens,
			},
		},
	}, nil
}

// BaseURL reports the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}
