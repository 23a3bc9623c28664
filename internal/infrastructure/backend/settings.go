package backend

import (
	"context"
	"fmt"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// IngestionStatus reads the authoritative job state. Unknown values are
// rejected rather than cached, so a poll can never confirm garbage.
func (c *Client) IngestionStatus(ctx context.Context) (domain.IngestionStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/settings/ingestion-status", &out, "settings.ingestion_status"); err != nil {
		return "", err
	}

	status := domain.IngestionStatus(out.Status)
	switch status {
	case domain.IngestionIdle, domain.IngestionInProgress, domain.IngestionCompleted, domain.IngestionFailed:
		return status, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "settings.ingestion_status", fmt.Errorf("unknown status %q", out.Status))
	}
}

func (c *Client) ToggleState(ctx context.Context) (domain.ToggleState, error) {
	var out domain.ToggleState
	if err := c.getJSON(ctx, "/settings/ingest-toggle", &out, "settings.toggle_read"); err != nil {
		return domain.ToggleState{}, err
	}
	return out, nil
}

// SetToggle writes the ingestion toggle. Enabling during a running job
// succeeds with a server notice; disabling during one is rejected by
// the backend with an invalid-input error.
func (c *Client) SetToggle(ctx context.Context, enabled bool) (domain.ToggleState, error) {
	payload := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}

	var out domain.ToggleState
	if err := c.postJSON(ctx, "/settings/ingest-toggle", payload, &out, "settings.toggle_write"); err != nil {
		return domain.ToggleState{}, err
	}
	return out, nil
}
