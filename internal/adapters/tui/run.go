package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// Run drives the interactive UI until the user quits or ctx ends.
func Run(ctx context.Context, deps Deps) error {
	out := &sender{}
	model := New(ctx, deps, out)
	p := tea.NewProgram(model, tea.WithAltScreen())
	out.bind(func(msg tea.Msg) { p.Send(msg) })

	unsubs := subscribeBus(deps, out)
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	stop := context.AfterFunc(ctx, p.Quit)
	defer stop()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// subscribeBus forwards process-wide events into the program. The
// rate-limit topic feeds the toast overlay; the completion topic
// triggers the one-shot document refresh.
func subscribeBus(deps Deps, out *sender) []func() {
	if deps.Bus == nil {
		return nil
	}
	var unsubs []func()

	if unsub, err := deps.Bus.Subscribe(domain.TopicRateLimitExceeded, func(event domain.Event) {
		if signal, ok := event.(domain.RateLimitSignal); ok {
			out.send(rateLimitMsg{message: signal.Message, at: signal.OccurredAt})
		}
	}); err == nil {
		unsubs = append(unsubs, unsub)
	} else if deps.Logger != nil {
		deps.Logger.Warn("bus_subscribe_failed", "topic", string(domain.TopicRateLimitExceeded), "error", err)
	}

	if unsub, err := deps.Bus.Subscribe(domain.TopicIngestionCompleted, func(event domain.Event) {
		if finished, ok := event.(domain.IngestionFinished); ok {
			out.send(ingestionDoneMsg{status: finished.Status})
		}
	}); err == nil {
		unsubs = append(unsubs, unsub)
	} else if deps.Logger != nil {
		deps.Logger.Warn("bus_subscribe_failed", "topic", string(domain.TopicIngestionCompleted), "error", err)
	}

	return unsubs
}
