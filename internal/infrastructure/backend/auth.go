package backend

import (
	"context"
	"errors"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type meResponse struct {
	User         *domain.Profile `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// Me resolves the current session. Responses may carry a token pair for
// non-browser clients; the caller decides whether to persist it.
func (c *Client) Me(ctx context.Context) (*domain.Profile, *domain.TokenPair, error) {
	var out meResponse
	if err := c.getJSON(ctx, "/auth/me", &out, "auth.me"); err != nil {
		return nil, nil, err
	}
	if out.User == nil {
		return nil, nil, domain.WrapError(domain.ErrUnauthenticated, "auth.me", errors.New("response carried no user"))
	}

	var tokens *domain.TokenPair
	if out.AccessToken != "" {
		tokens = &domain.TokenPair{
			AccessToken:  out.AccessToken,
			RefreshToken: out.RefreshToken,
		}
	}
	return out.User, tokens, nil
}

// GoogleAuthURL asks the backend to begin the OAuth dance and returns
// the authorization URL the user must visit.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.postJSON(ctx, "/auth/google", nil, &out, "auth.google"); err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", domain.WrapError(domain.ErrTemporary, "auth.google", errors.New("response carried no auth_url"))
	}
	return out.AuthURL, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", nil, nil, "auth.logout")
}

// Refresh trades the current credentials for a fresh access token.
func (c *Client) Refresh(ctx context.Context) (*domain.TokenPair, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.postJSON(ctx, "/auth/refresh", nil, &out, "auth.refresh"); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, domain.WrapError(domain.ErrUnauthenticated, "auth.refresh", errors.New("response carried no access_token"))
	}
	return &domain.TokenPair{AccessToken: out.AccessToken}, nil
}
