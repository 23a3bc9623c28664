package backend

import (
	"errors"
	"testing"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type stubStore struct {
	pair *domain.TokenPair
	err  error
}

func (s *stubStore) Load() (*domain.TokenPair, error) { return s.pair, s.err }
func (s *stubStore) Save(domain.TokenPair) error      { return nil }
func (s *stubStore) Clear() error                     { return nil }

func TestTokenSourceReadsStoreOnEveryCall(t *testing.T) {
	store := &stubStore{pair: &domain.TokenPair{AccessToken: "first"}}
	source := NewStoreTokenSource(store)

	token, err := source.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token.AccessToken != "first" {
		t.Fatalf("expected first token, got %q", token.AccessToken)
	}

	store.pair = &domain.TokenPair{AccessToken: "second"}
	token, err = source.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token.AccessToken != "second" {
		t.Fatalf("expected refreshed token, got %q", token.AccessToken)
	}
}

func TestTokenSourceReportsMissingCredentials(t *testing.T) {
	source := NewStoreTokenSource(&stubStore{})
	if _, err := source.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}
