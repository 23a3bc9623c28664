package domain

// IngestionStatus mirrors the backend's ingestion job lifecycle. The
// backend is authoritative; clients only ever cache a poll-confirmed copy.
type IngestionStatus string

const (
	IngestionIdle       IngestionStatus = "idle"
	IngestionInProgress IngestionStatus = "in_progress"
	IngestionCompleted  IngestionStatus = "completed"
	IngestionFailed     IngestionStatus = "failed"
)

// IngestionSnapshot is the coordinator's shared view consumed by every
// surface. Guards are closed until the first poll confirmation lands.
type IngestionSnapshot struct {
	Status    IngestionStatus
	Confirmed bool
	// TogglePending marks an accepted toggle request whose effect has
	// not yet been observed by a poll.
	TogglePending bool
	Enabled       bool
}

func (s IngestionSnapshot) UploadsAllowed() bool {
	if !s.Confirmed {
		return false
	}
	return s.Status == IngestionIdle || s.Status == IngestionCompleted
}

func (s IngestionSnapshot) ToggleAllowed() bool {
	if !s.Confirmed {
		return false
	}
	return s.Status != IngestionInProgress
}

// ToggleState is the backend's answer to a toggle read or write. Message
// carries server remarks such as an already-in-progress notice.
type ToggleState struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}
