package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// errorBodyLimit caps how much of an error response is read for the
// message; FastAPI detail payloads are tiny.
const errorBodyLimit = 2048

type operationKey struct{}

func withOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

func operationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}

func (c *Client) getJSON(ctx context.Context, path string, out any, operation string) error {
	return c.doJSON(ctx, http.MethodGet, c.baseURL+path, nil, out, operation)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+path, payload, out, operation)
}

func (c *Client) deleteJSON(ctx context.Context, path string, out any, operation string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+path, nil, out, operation)
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload any, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(withOperation(ctx, operation), method, url, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransportError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(operation, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

// download streams a raw response body; the caller closes it.
func (c *Client) download(ctx context.Context, path, operation string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(withOperation(ctx, operation), http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%s: build request: %w", operation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", wrapTransportError(operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, "", statusError(operation, resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func wrapTransportError(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(domain.ErrTemporary, operation, err)
}

func statusError(operation string, resp *http.Response) error {
	kind := kindForStatus(resp.StatusCode)
	detail := readDetail(resp.Body)
	if detail == "" {
		return domain.WrapError(kind, operation, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return domain.WrapError(kind, operation, fmt.Errorf("unexpected status %s: %s", resp.Status, detail))
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.ErrUnauthenticated
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code >= 400 && code < 500:
		return domain.ErrInvalidInput
	default:
		return domain.ErrTemporary
	}
}

// readDetail extracts the backend's {"detail": "..."} message from an
// error body, falling back to the raw snippet.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}
