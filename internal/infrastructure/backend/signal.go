package backend

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

// defaultRateLimitMessage is shown when a throttled response carries no
// usable detail.
const defaultRateLimitMessage = "Too many requests. Please slow down."

// signalTransport decorates every request: request id, optional bearer
// credentials, metrics, and the rate-limit broadcast. The broadcast is
// synchronous, so by the time the response reaches the caller the
// notification surface has already observed the signal.
type signalTransport struct {
	base    http.RoundTripper
	bus     ports.EventBus
	metrics *metrics.ClientMetrics
	logger  *slog.Logger
	tokens  oauth2.TokenSource
}

func (t *signalTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	operation := operationFromContext(req.Context())

	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-Id") == "" {
		out.Header.Set("X-Request-Id", uuid.NewString())
	}
	if t.tokens != nil && out.Header.Get("Authorization") == "" {
		token, err := t.tokens.Token()
		if err != nil {
			t.logger.Debug("bearer_token_unavailable", "operation", operation, "error", err)
		} else {
			token.SetAuthHeader(out)
		}
	}

	if t.metrics != nil {
		t.metrics.RequestStarted()
	}
	start := time.Now()

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RequestFinished(operation, 0, time.Since(start))
		}
		return nil, err
	}
	if t.metrics != nil {
		t.metrics.RequestFinished(operation, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		t.broadcastRateLimit(out, resp, operation)
	}
	return resp, nil
}

// broadcastRateLimit publishes one signal per throttled response. The
// body is restored so the caller still sees the full error payload.
func (t *signalTransport) broadcastRateLimit(req *http.Request, resp *http.Response, operation string) {
	message := defaultRateLimitMessage
	if resp.Body != nil {
		data, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		if err == nil {
			resp.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(data), resp.Body), resp.Body}
			if detail := detailFromPayload(data); detail != "" {
				message = detail
			}
		}
	}

	if t.metrics != nil {
		t.metrics.RecordRateLimitSignal()
	}
	if t.bus == nil {
		return
	}

	signal := domain.RateLimitSignal{Message: message, OccurredAt: time.Now().UTC()}
	if err := t.bus.Publish(req.Context(), signal); err != nil {
		t.logger.Warn("rate_limit_broadcast_failed", "operation", operation, "error", err)
	}
}

func detailFromPayload(data []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		return payload.Detail
	}
	return ""
}
