// Package bus is the in-process event bus. Delivery is synchronous:
// Publish returns only after every handler registered for the topic has
// run, which lets the rate-limit interceptor guarantee the notification
// surface saw the signal before the caller's error handling continues.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

// Bus implements ports.EventBus over a watermill GoChannel. One
// subscription per topic feeds a dispatch loop that fans out to the
// currently registered handlers; publish blocks until the loop acks.
type Bus struct {
	pubSub  *gochannel.GoChannel
	logger  *slog.Logger
	metrics *metrics.ClientMetrics

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	nextID      int
	handlers    map[domain.Topic]map[int]func(domain.Event)
	dispatching map[domain.Topic]bool
	closed      bool
}

func New(logger *slog.Logger, clientMetrics *metrics.ClientMetrics) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)
	return &Bus{
		pubSub:      pubSub,
		logger:      logger,
		metrics:     clientMetrics,
		ctx:         ctx,
		cancel:      cancel,
		handlers:    map[domain.Topic]map[int]func(domain.Event){},
		dispatching: map[domain.Topic]bool{},
	}
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	topic := event.EventTopic()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := b.pubSub.Publish(string(topic), msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	if b.metrics != nil {
		b.metrics.RecordEventPublished(string(topic))
	}
	return nil
}

func (b *Bus) Subscribe(topic domain.Topic, handler func(domain.Event)) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", topic)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("subscribe %s: bus closed", topic)
	}

	if !b.dispatching[topic] {
		messages, err := b.pubSub.Subscribe(b.ctx, string(topic))
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		b.dispatching[topic] = true
		go b.dispatch(topic, messages)
	}

	id := b.nextID
	b.nextID++
	if b.handlers[topic] == nil {
		b.handlers[topic] = map[int]func(domain.Event){}
	}
	b.handlers[topic][id] = handler

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[topic], id)
			b.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	return b.pubSub.Close()
}

// dispatch runs until the topic subscription closes. Messages are acked
// after every handler returned, so publishers observe completed
// delivery.
func (b *Bus) dispatch(topic domain.Topic, messages <-chan *message.Message) {
	for msg := range messages {
		event, err := decodeEvent(topic, msg.Payload)
		if err != nil {
			b.logger.Warn("bus_decode_failed", "topic", string(topic), "error", err)
			msg.Ack()
			continue
		}
		for _, handler := range b.snapshotHandlers(topic) {
			b.invoke(topic, handler, event)
		}
		msg.Ack()
	}
}

func (b *Bus) snapshotHandlers(topic domain.Topic) []func(domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]func(domain.Event), 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		out = append(out, h)
	}
	return out
}

// invoke shields the dispatch loop and sibling handlers from a
// panicking handler.
func (b *Bus) invoke(topic domain.Topic, handler func(domain.Event), event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus_handler_panic", "topic", string(topic), "panic", fmt.Sprint(r))
		}
	}()
	handler(event)
}

func decodeEvent(topic domain.Topic, payload []byte) (domain.Event, error) {
	switch topic {
	case domain.TopicRateLimitExceeded:
		var event domain.RateLimitSignal
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case domain.TopicIngestionCompleted:
		var event domain.IngestionFinished
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
}
