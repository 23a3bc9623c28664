package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/maildeck/maildeck/internal/config"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/core/usecase"
	"github.com/maildeck/maildeck/internal/infrastructure/backend"
	"github.com/maildeck/maildeck/internal/infrastructure/browser"
	"github.com/maildeck/maildeck/internal/infrastructure/bus"
	"github.com/maildeck/maildeck/internal/infrastructure/cache"
	"github.com/maildeck/maildeck/internal/infrastructure/extract"
	"github.com/maildeck/maildeck/internal/infrastructure/resilience"
	"github.com/maildeck/maildeck/internal/infrastructure/state"
	"github.com/maildeck/maildeck/internal/observability/logging"
	"github.com/maildeck/maildeck/internal/observability/metrics"
)

const defaultLogPath = "./data/maildeck.log"

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.ClientMetrics

	Bus         ports.EventBus
	Credentials ports.CredentialStore
	Health      ports.HealthAPI

	Session   *usecase.SessionManager
	Ingestion *usecase.IngestionCoordinator
	Mailbox   *usecase.MailboxService
	Documents *usecase.DocumentService

	closeFn func()
}

// New wires the whole client. interactive routes logs to a file so the
// terminal stays free for the UI.
func New(ctx context.Context, cfg config.Config, interactive bool) (*App, error) {
	logger, logClose, err := newLogger(cfg, interactive)
	if err != nil {
		return nil, err
	}

	m := metrics.NewClientMetrics("maildeck")
	metricsSrv := startMetricsServer(cfg.MetricsAddr, m, logger)

	eventBus := bus.New(logger, m)

	store, err := state.New(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	client, err := backend.New(backend.Options{
		BaseURL:   cfg.APIBaseURL,
		HealthURL: cfg.HealthURL,
		Timeout:   time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		Bus:       eventBus,
		Metrics:   m,
		Logger:    logger,
		Tokens:    backend.NewStoreTokenSource(store),
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}

	db, err := cache.OpenDB(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	emailCache := cache.NewEmailCache(db)
	if err := emailCache.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure email cache schema: %w", err)
	}
	documentCache := cache.NewDocumentCache(db)
	if err := documentCache.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure document cache schema: %w", err)
	}

	executorCfg := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		executorCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	executor := resilience.NewExecutor(executorCfg, backend.ClassifyError, logger)

	// REPLY_RATE_PER_MINUTE=0 turns local pacing off.
	var pace *rate.Limiter
	if cfg.ReplyRatePerMinute > 0 {
		burst := cfg.ReplyBurst
		if burst < 1 {
			burst = 1
		}
		pace = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.ReplyRatePerMinute)), burst)
	}

	session := usecase.NewSessionManager(client, store, browser.New(logger), logger)
	ingestion := usecase.NewIngestionCoordinator(
		client,
		eventBus,
		time.Duration(cfg.PollIntervalMS)*time.Millisecond,
		logger,
		m,
	)
	mailbox := usecase.NewMailboxService(client, emailCache, executor, pace, logger)
	documents := usecase.NewDocumentService(client, documentCache, extract.NewRegistry(cfg.PreviewMaxChars), executor, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,

		Bus:         eventBus,
		Credentials: store,
		Health:      client,

		Session:   session,
		Ingestion: ingestion,
		Mailbox:   mailbox,
		Documents: documents,

		closeFn: func() {
			session.Close()
			if err := eventBus.Close(); err != nil {
				logger.Warn("bus_close_failed", "error", err)
			}
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics_shutdown_failed", "error", err)
				}
			}
			if err := db.Close(); err != nil {
				logger.Warn("cache_close_failed", "error", err)
			}
			if logClose != nil {
				_ = logClose()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newLogger(cfg config.Config, interactive bool) (*slog.Logger, func() error, error) {
	path := cfg.LogPath
	if interactive && path == "" {
		path = defaultLogPath
	}
	if path == "" {
		return logging.NewJSONLogger("maildeck", cfg.LogLevel), nil, nil
	}
	logger, closeFn, err := logging.NewFileLogger(path, "maildeck", cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger, closeFn, nil
}

// startMetricsServer exposes the registry when an address is set.
func startMetricsServer(addr string, m *metrics.ClientMetrics, logger *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("metrics_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()
	return srv
}
