// Package state persists session credentials between runs in a small
// yaml file. The file is chmod 0600 because it holds bearer tokens.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type tokenDoc struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	SavedAt      time.Time `yaml:"saved_at"`
}

type stateDoc struct {
	Tokens *tokenDoc `yaml:"tokens,omitempty"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		path = "./data/state.yaml"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Load returns the stored token pair, or nil when nothing is stored.
func (s *Store) Load() (*domain.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Tokens == nil || doc.Tokens.AccessToken == "" {
		return nil, nil
	}
	return &domain.TokenPair{
		AccessToken:  doc.Tokens.AccessToken,
		RefreshToken: doc.Tokens.RefreshToken,
	}, nil
}

func (s *Store) Save(tokens domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Tokens = &tokenDoc{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		SavedAt:      time.Now().UTC(),
	}
	return s.write(doc)
}

// Clear drops the stored credentials but keeps the file in place.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Tokens == nil {
		return nil
	}
	doc.Tokens = nil
	return s.write(doc)
}

func (s *Store) read() (stateDoc, error) {
	var doc stateDoc
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("unmarshal state file: %w", err)
	}
	return doc, nil
}

func (s *Store) write(doc stateDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal state file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
