package tui

import (
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// Messages produced by commands and background subscriptions. Every
// backend round trip reports back through one of these so Update stays
// the only place that mutates state.

type sessionMsg struct {
	session domain.Session
}

type loginResultMsg struct {
	err error
}

type emailsMsg struct {
	page domain.EmailPage
	err  error
}

type emailDetailMsg struct {
	email  domain.Email
	thread []domain.Email
	err    error
}

type labelsMsg struct {
	labels []domain.Label
	err    error
}

type draftMsg struct {
	emailID string
	content string
	err     error
}

type replyMsg struct {
	receipt domain.ReplyReceipt
	err     error
}

type documentsMsg struct {
	page domain.DocumentPage
	err  error
}

type previewMsg struct {
	preview domain.Preview
	err     error
}

type documentDeletedMsg struct {
	id string
}

type toggleMsg struct {
	state domain.ToggleState
	err   error
}

type healthMsg struct {
	health domain.Health
	err    error
}

// ingestionMsg carries a fresh snapshot from the poll subscription.
type ingestionMsg struct {
	snap domain.IngestionSnapshot
}

// ingestionDoneMsg arrives from the bus when a run finished.
type ingestionDoneMsg struct {
	status domain.IngestionStatus
}

// rateLimitMsg arrives from the bus when the backend throttled a call.
type rateLimitMsg struct {
	message string
	at      time.Time
}

type toastExpiredMsg struct {
	id int
}
