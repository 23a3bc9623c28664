package ports

import (
	"context"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// SessionControl is the inbound contract for the session lifecycle.
type SessionControl interface {
	Bootstrap(ctx context.Context) domain.Session
	StartLogin(ctx context.Context) error
	Logout()
	Session() domain.Session
}

// IngestionControl is the inbound contract for ingestion state, guards
// and the toggle.
type IngestionControl interface {
	Snapshot() domain.IngestionSnapshot
	// Watch attaches a poll subscription delivering fresh snapshots
	// until the returned stop function is called.
	Watch(ctx context.Context, onUpdate func(domain.IngestionSnapshot)) (stop func())
	Toggle(ctx context.Context, enabled bool) (domain.ToggleState, error)
	ToggleState(ctx context.Context) (domain.ToggleState, error)
}

// Mailbox is the inbound contract for email browsing and replies.
type Mailbox interface {
	List(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error)
	Get(ctx context.Context, emailID string) (domain.Email, error)
	Thread(ctx context.Context, emailID string) ([]domain.Email, error)
	Labels(ctx context.Context) ([]domain.Label, error)
	GenerateReply(ctx context.Context, emailID string) (string, error)
	SendReply(ctx context.Context, emailID, content string, useGenerated bool) (domain.ReplyReceipt, error)
}

// DocumentLibrary is the inbound contract for the document manager.
type DocumentLibrary interface {
	List(ctx context.Context, limit, offset int) (domain.DocumentPage, error)
	Delete(ctx context.Context, id string) error
	// Preview downloads and extracts the given listing row; the row
	// carries the metadata the extractor dispatches on.
	Preview(ctx context.Context, doc domain.Document) (domain.Preview, error)
}
