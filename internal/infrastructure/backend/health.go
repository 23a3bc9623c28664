package backend

import (
	"context"
	"net/http"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// Health probes the backend's service summary. The endpoint lives at
// the server root rather than under the API prefix.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var out domain.Health
	if err := c.doJSON(ctx, http.MethodGet, c.healthURL+"/health", nil, &out, "health.check"); err != nil {
		return domain.Health{}, err
	}
	return out, nil
}
