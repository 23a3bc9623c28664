package backend

import (
	"errors"

	"golang.org/x/oauth2"

	"github.com/maildeck/maildeck/internal/core/ports"
)

// ErrNoToken reports that no credentials are stored locally.
var ErrNoToken = errors.New("no stored access token")

// StoreTokenSource adapts a credential store to oauth2.TokenSource.
// Tokens are re-read on every call so that a login or refresh performed
// elsewhere in the process is picked up without re-wiring the client.
type StoreTokenSource struct {
	store ports.CredentialStore
}

func NewStoreTokenSource(store ports.CredentialStore) *StoreTokenSource {
	return &StoreTokenSource{store: store}
}

func (s *StoreTokenSource) Token() (*oauth2.Token, error) {
	pair, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if pair == nil || pair.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}
