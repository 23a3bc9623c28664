package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) handle(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := New(logging.Discard("bus-test"), nil)
	t.Cleanup(func() {
		_ = b.Close()
	})
	return b
}

func TestPublishDeliversBeforeReturning(t *testing.T) {
	b := newTestBus(t)
	recorder := &eventRecorder{}

	unsubscribe, err := b.Subscribe(domain.TopicRateLimitExceeded, recorder.handle)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	signal := domain.RateLimitSignal{Message: "slow down", OccurredAt: time.Now().UTC()}
	if err := b.Publish(context.Background(), signal); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if recorder.count() != 1 {
		t.Fatalf("expected delivery before publish returned, got %d events", recorder.count())
	}
	got, ok := recorder.events[0].(domain.RateLimitSignal)
	if !ok {
		t.Fatalf("expected RateLimitSignal, got %T", recorder.events[0])
	}
	if got.Message != "slow down" {
		t.Fatalf("expected message to survive transport, got %q", got.Message)
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := newTestBus(t)
	first := &eventRecorder{}
	second := &eventRecorder{}

	for _, r := range []*eventRecorder{first, second} {
		unsubscribe, err := b.Subscribe(domain.TopicIngestionCompleted, r.handle)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		defer unsubscribe()
	}

	event := domain.IngestionFinished{Status: domain.IngestionCompleted, OccurredAt: time.Now().UTC()}
	if err := b.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if first.count() != 1 || second.count() != 1 {
		t.Fatalf("expected both subscribers to receive, got %d and %d", first.count(), second.count())
	}
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	b := newTestBus(t)
	recorder := &eventRecorder{}

	unsubPanic, err := b.Subscribe(domain.TopicRateLimitExceeded, func(domain.Event) {
		panic("handler exploded")
	})
	if err != nil {
		t.Fatalf("subscribe panicking handler: %v", err)
	}
	defer unsubPanic()

	unsub, err := b.Subscribe(domain.TopicRateLimitExceeded, recorder.handle)
	if err != nil {
		t.Fatalf("subscribe recorder: %v", err)
	}
	defer unsub()

	signal := domain.RateLimitSignal{Message: "throttled", OccurredAt: time.Now().UTC()}
	if err := b.Publish(context.Background(), signal); err != nil {
		t.Fatalf("expected publish to survive handler panic, got %v", err)
	}
	if recorder.count() != 1 {
		t.Fatalf("expected surviving handler to receive event, got %d", recorder.count())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := newTestBus(t)
	recorder := &eventRecorder{}

	unsubscribe, err := b.Subscribe(domain.TopicRateLimitExceeded, recorder.handle)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	signal := domain.RateLimitSignal{Message: "first", OccurredAt: time.Now().UTC()}
	if err := b.Publish(context.Background(), signal); err != nil {
		t.Fatalf("publish: %v", err)
	}
	unsubscribe()
	// Unsubscribe is idempotent.
	unsubscribe()

	signal.Message = "second"
	if err := b.Publish(context.Background(), signal); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}

	if recorder.count() != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d events", recorder.count())
	}
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	b := newTestBus(t)

	signal := domain.RateLimitSignal{Message: "nobody listening", OccurredAt: time.Now().UTC()}
	if err := b.Publish(context.Background(), signal); err != nil {
		t.Fatalf("expected publish without subscribers to succeed, got %v", err)
	}
}
