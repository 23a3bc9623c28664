package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maildeck/maildeck/internal/adapters/tui"
	"github.com/maildeck/maildeck/internal/bootstrap"
	"github.com/maildeck/maildeck/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "maildeck",
	Short: "Terminal client for the mail assistant backend",
	Long: `maildeck is a terminal client for the mail assistant backend.

Run it without arguments for the interactive UI. The subcommands cover
the same operations one shot at a time for scripts and quick checks.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	return tui.Run(ctx, tui.Deps{
		Session:    app.Session,
		Ingestion:  app.Ingestion,
		Mailbox:    app.Mailbox,
		Documents:  app.Documents,
		Health:     app.Health,
		Bus:        app.Bus,
		Logger:     app.Logger,
		PageLimit:  cfg.PageLimit,
		UnreadOnly: cfg.UnreadOnlyDefault,
	})
}

// withApp wires the client for a one-shot subcommand and tears it down
// when the callback returns.
func withApp(fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	return fn(ctx, app)
}

func requireSession(ctx context.Context, app *bootstrap.App) error {
	if sess := app.Session.Bootstrap(ctx); !sess.Authenticated() {
		return errors.New("not signed in; run maildeck login first")
	}
	return nil
}
