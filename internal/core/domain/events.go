package domain

import "time"

// Topic enumerates every bus topic. Publishing or subscribing outside
// this set is a programming error, not a runtime condition.
type Topic string

const (
	TopicRateLimitExceeded  Topic = "rate_limit.exceeded"
	TopicIngestionCompleted Topic = "ingestion.completed"
)

// Event is a bus payload. Implementations are plain value types so
// handlers can never mutate the publisher's copy.
type Event interface {
	EventTopic() Topic
	EventTime() time.Time
}

// RateLimitSignal is broadcast once per throttled backend response.
// Signals are ephemeral and carry no identity, so repeated throttling
// produces repeated signals.
type RateLimitSignal struct {
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s RateLimitSignal) EventTopic() Topic    { return TopicRateLimitExceeded }
func (s RateLimitSignal) EventTime() time.Time { return s.OccurredAt }

// IngestionFinished is published exactly once per observed transition
// into the completed status.
type IngestionFinished struct {
	Status     IngestionStatus `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (e IngestionFinished) EventTopic() Topic    { return TopicIngestionCompleted }
func (e IngestionFinished) EventTime() time.Time { return e.OccurredAt }
