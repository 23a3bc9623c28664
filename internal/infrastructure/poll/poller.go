// Package poll implements fixed-interval polling against a slowly
// changing backend resource. Checks fire immediately on start, failures
// are dropped and retried on the next tick, and a stopped poller never
// delivers again.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maildeck/maildeck/internal/observability/logging"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

const defaultInterval = 5 * time.Second

type Options[T any] struct {
	// Interval between checks. Defaults to 5s when unset.
	Interval time.Duration
	// Check fetches the current value. Required.
	Check func(ctx context.Context) (T, error)
	// OnUpdate receives each successfully checked value. It runs on the
	// poll goroutine and must not call Stop. Required.
	OnUpdate func(T)

	Logger  *slog.Logger
	Metrics *metrics.ClientMetrics
}

type Poller[T any] struct {
	interval time.Duration
	check    func(ctx context.Context) (T, error)
	onUpdate func(T)
	logger   *slog.Logger
	metrics  *metrics.ClientMetrics

	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// Start launches the poll loop. The loop ends when Stop is called or
// ctx is cancelled.
func Start[T any](ctx context.Context, opts Options[T]) (*Poller[T], error) {
	if opts.Check == nil {
		return nil, fmt.Errorf("poll: Check is required")
	}
	if opts.OnUpdate == nil {
		return nil, fmt.Errorf("poll: OnUpdate is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard("poller")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p := &Poller[T]{
		interval: opts.Interval,
		check:    opts.Check,
		onUpdate: opts.OnUpdate,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		cancel:   cancel,
	}
	if p.metrics != nil {
		p.metrics.PollerStarted()
	}
	go p.run(loopCtx)
	return p, nil
}

// Stop ends the subscription. It is idempotent and safe to call before
// the first check completed; no update is delivered after it returns.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.cancel()
}

func (p *Poller[T]) run(ctx context.Context) {
	if p.metrics != nil {
		defer p.metrics.PollerStopped()
	}

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller[T]) tick(ctx context.Context) {
	value, err := p.safeCheck(ctx)
	if p.metrics != nil {
		p.metrics.RecordPollTick(err)
	}
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug("poll_check_failed", "error", err)
		}
		return
	}
	p.deliver(value)
}

func (p *Poller[T]) safeCheck(ctx context.Context) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return p.check(ctx)
}

func (p *Poller[T]) deliver(value T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.onUpdate(value)
}
