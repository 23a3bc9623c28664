package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/infrastructure/poll"
	"github.com/maildeck/maildeck/internal/observability/logging"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

// polledStatus carries a status check together with the token issued
// when the check started, so results can be ordered even when round
// trips overtake each other.
type polledStatus struct {
	token  uint64
	status domain.IngestionStatus
}

// IngestionCoordinator owns the poll-confirmed ingestion state that
// every surface reads. Any number of Watch subscriptions funnel into
// one apply step ordered by issue token, so two surfaces can never
// hold contradictory guard values.
type IngestionCoordinator struct {
	settings ports.SettingsAPI
	bus      ports.EventBus
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.ClientMetrics

	seq uint64

	mu           sync.Mutex
	snap         domain.IngestionSnapshot
	lastApplied  uint64
	pendingToken uint64
}

func NewIngestionCoordinator(
	settings ports.SettingsAPI,
	bus ports.EventBus,
	interval time.Duration,
	logger *slog.Logger,
	m *metrics.ClientMetrics,
) *IngestionCoordinator {
	if logger == nil {
		logger = logging.Discard("ingestion")
	}
	return &IngestionCoordinator{
		settings: settings,
		bus:      bus,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// Snapshot returns the current shared view. Guards stay closed until
// the first poll confirmation lands.
func (c *IngestionCoordinator) Snapshot() domain.IngestionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Watch starts a poll subscription for one surface. onUpdate runs on
// the poll goroutine and receives the shared snapshot after every
// check, whether or not that check changed it.
func (c *IngestionCoordinator) Watch(ctx context.Context, onUpdate func(domain.IngestionSnapshot)) (stop func()) {
	poller, err := poll.Start(ctx, poll.Options[polledStatus]{
		Interval: c.interval,
		Logger:   c.logger,
		Metrics:  c.metrics,
		Check: func(ctx context.Context) (polledStatus, error) {
			token := atomic.AddUint64(&c.seq, 1)
			status, err := c.settings.IngestionStatus(ctx)
			if err != nil {
				return polledStatus{}, err
			}
			return polledStatus{token: token, status: status}, nil
		},
		OnUpdate: func(v polledStatus) {
			c.apply(ctx, v)
			onUpdate(c.Snapshot())
		},
	})
	if err != nil {
		c.logger.Error("watch_start_failed", "error", err)
		return func() {}
	}
	return poller.Stop
}

// apply folds one poll result into the shared snapshot. A result whose
// token lost the race to a newer one is discarded. The transition into
// completed publishes the finished event exactly once.
func (c *IngestionCoordinator) apply(ctx context.Context, v polledStatus) {
	c.mu.Lock()
	if v.token <= c.lastApplied {
		c.mu.Unlock()
		return
	}
	c.lastApplied = v.token

	prev := c.snap
	c.snap.Status = v.status
	c.snap.Confirmed = true
	// Only checks issued after the toggle request can settle it.
	if c.snap.TogglePending && v.token > c.pendingToken {
		c.snap.TogglePending = false
	}

	completedEdge := prev.Confirmed &&
		prev.Status != domain.IngestionCompleted &&
		v.status == domain.IngestionCompleted
	changed := !prev.Confirmed || prev.Status != v.status
	c.mu.Unlock()

	if changed {
		c.logger.Info("ingestion_status_confirmed", "status", string(v.status))
	}
	if completedEdge && c.bus != nil {
		event := domain.IngestionFinished{Status: v.status, OccurredAt: time.Now().UTC()}
		if err := c.bus.Publish(ctx, event); err != nil {
			c.logger.Warn("ingestion_event_publish_failed", "error", err)
		}
	}
}

// Toggle asks the backend to change ingestion. The job state a toggle
// causes is only ever confirmed by a later poll, never assumed here.
func (c *IngestionCoordinator) Toggle(ctx context.Context, enabled bool) (domain.ToggleState, error) {
	state, err := c.settings.SetToggle(ctx, enabled)
	if err != nil {
		return domain.ToggleState{}, err
	}

	c.mu.Lock()
	c.snap.Enabled = state.Enabled
	c.snap.TogglePending = true
	c.pendingToken = atomic.LoadUint64(&c.seq)
	c.mu.Unlock()

	c.logger.Info("ingest_toggle_written", "enabled", state.Enabled, "message", state.Message)
	return state, nil
}

// ToggleState reads the toggle without touching the job status.
func (c *IngestionCoordinator) ToggleState(ctx context.Context) (domain.ToggleState, error) {
	state, err := c.settings.ToggleState(ctx)
	if err != nil {
		return domain.ToggleState{}, err
	}
	c.mu.Lock()
	c.snap.Enabled = state.Enabled
	c.mu.Unlock()
	return state, nil
}
