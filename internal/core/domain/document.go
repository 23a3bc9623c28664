package domain

import "time"

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Status      DocumentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DocumentPage is one listing result. Stale marks pages served from the
// local cache because the backend was unreachable.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
	Stale     bool       `json:"-"`
}

// Preview is extracted text for terminal display.
type Preview struct {
	Document Document
	Text     string
	// Truncated is set when extraction stopped at the preview cap.
	Truncated bool
}
