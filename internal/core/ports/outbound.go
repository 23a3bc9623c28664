package ports

import (
	"context"
	"io"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// AuthAPI is the backend's session surface.
type AuthAPI interface {
	Me(ctx context.Context) (*domain.Profile, *domain.TokenPair, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*domain.TokenPair, error)
}

// SettingsAPI reads and writes the ingestion toggle and status.
type SettingsAPI interface {
	IngestionStatus(ctx context.Context) (domain.IngestionStatus, error)
	ToggleState(ctx context.Context) (domain.ToggleState, error)
	SetToggle(ctx context.Context, enabled bool) (domain.ToggleState, error)
}

// EmailAPI is the backend's email surface.
type EmailAPI interface {
	ListEmails(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error)
	GetEmail(ctx context.Context, emailID string) (domain.Email, error)
	Thread(ctx context.Context, emailID string) ([]domain.Email, error)
	Labels(ctx context.Context) ([]domain.Label, error)
	GenerateResponse(ctx context.Context, emailID string) (string, error)
	Reply(ctx context.Context, emailID, content string, useGenerated bool) (domain.ReplyReceipt, error)
}

// DocumentAPI is the backend's document surface.
type DocumentAPI interface {
	ListDocuments(ctx context.Context, limit, offset int) (domain.DocumentPage, error)
	DeleteDocument(ctx context.Context, id string) error
	Download(ctx context.Context, id string) (io.ReadCloser, error)
}

// HealthAPI reads the backend health summary.
type HealthAPI interface {
	Health(ctx context.Context) (domain.Health, error)
}

// EventBus delivers typed events to all current subscribers before
// Publish returns. Handlers are isolated from each other.
type EventBus interface {
	Publish(ctx context.Context, event domain.Event) error
	Subscribe(topic domain.Topic, handler func(domain.Event)) (unsubscribe func(), err error)
	Close() error
}

// Navigator hands an external navigation request to the environment.
type Navigator interface {
	OpenURL(ctx context.Context, url string) error
}

// CredentialStore persists bearer tokens between runs.
type CredentialStore interface {
	Load() (*domain.TokenPair, error)
	Save(tokens domain.TokenPair) error
	Clear() error
}

// MailCache mirrors email listings for offline fallback. Pages are
// keyed by their filter so cached windows never mix filters.
type MailCache interface {
	SaveEmails(ctx context.Context, filter domain.EmailFilter, page domain.EmailPage) error
	ListEmails(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error)
}

// DocumentCache mirrors document listings for offline fallback.
type DocumentCache interface {
	SaveDocuments(ctx context.Context, page domain.DocumentPage) error
	ListDocuments(ctx context.Context, limit, offset int) (domain.DocumentPage, error)
}

// PreviewExtractor turns downloaded document bytes into display text.
// The bool result reports truncation at the preview cap.
type PreviewExtractor interface {
	Extract(ctx context.Context, contentType, filename string, r io.Reader) (string, bool, error)
}
