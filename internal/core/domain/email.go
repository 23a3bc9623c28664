package domain

import "time"

type Email struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Body     string    `json:"body"`
	Labels   []string  `json:"labels"`
	Date     time.Time `json:"date"`
	IsUnread bool      `json:"is_unread"`
}

// Label is a mailbox folder as the provider reports it.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// EmailFilter narrows a listing. The backend treats the label filter as
// a provider label name and applies unread-only on its side, so the
// flag always travels explicitly.
type EmailFilter struct {
	UnreadOnly bool
	Search     string
	Label      string
	Limit      int
	Offset     int
}

// EmailPage is one listing result. Stale marks pages served from the
// local cache because the backend was unreachable.
type EmailPage struct {
	Emails []Email `json:"emails"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Stale  bool    `json:"-"`
}

// ReplyReceipt acknowledges a sent reply.
type ReplyReceipt struct {
	Message    string `json:"message"`
	ResponseID string `json:"response_id"`
}
