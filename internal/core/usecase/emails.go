package usecase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/infrastructure/resilience"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

var errReplyPaced = errors.New("local reply budget exhausted")

// MailboxService wraps the email surface with retries for reads, a
// local pacing budget for replies and a cached fallback for listings.
type MailboxService struct {
	api      ports.EmailAPI
	cache    ports.MailCache
	executor *resilience.Executor
	pace     *rate.Limiter
	logger   *slog.Logger
}

func NewMailboxService(
	api ports.EmailAPI,
	cache ports.MailCache,
	executor *resilience.Executor,
	pace *rate.Limiter,
	logger *slog.Logger,
) *MailboxService {
	if logger == nil {
		logger = logging.Discard("mailbox")
	}
	return &MailboxService{
		api:      api,
		cache:    cache,
		executor: executor,
		pace:     pace,
		logger:   logger,
	}
}

// List serves a mailbox page, falling back to the local cache when the
// backend is unreachable. Cached pages come back marked stale.
func (s *MailboxService) List(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error) {
	var page domain.EmailPage
	err := s.execute(ctx, "emails.list", func(ctx context.Context) error {
		var callErr error
		page, callErr = s.api.ListEmails(ctx, filter)
		return callErr
	})
	if err == nil {
		if s.cache != nil {
			if cacheErr := s.cache.SaveEmails(ctx, filter, page); cacheErr != nil {
				s.logger.Warn("email_cache_write_failed", "error", cacheErr)
			}
		}
		return page, nil
	}

	if s.cache == nil || !offline(err) {
		return domain.EmailPage{}, err
	}
	cached, cacheErr := s.cache.ListEmails(ctx, filter)
	if cacheErr != nil {
		return domain.EmailPage{}, err
	}
	cached.Stale = true
	s.logger.Info("serving_cached_emails", "error", err)
	return cached, nil
}

func (s *MailboxService) Get(ctx context.Context, emailID string) (domain.Email, error) {
	var email domain.Email
	err := s.execute(ctx, "emails.get", func(ctx context.Context) error {
		var callErr error
		email, callErr = s.api.GetEmail(ctx, emailID)
		return callErr
	})
	return email, err
}

func (s *MailboxService) Thread(ctx context.Context, emailID string) ([]domain.Email, error) {
	var messages []domain.Email
	err := s.execute(ctx, "emails.thread", func(ctx context.Context) error {
		var callErr error
		messages, callErr = s.api.Thread(ctx, emailID)
		return callErr
	})
	return messages, err
}

func (s *MailboxService) Labels(ctx context.Context) ([]domain.Label, error) {
	var labels []domain.Label
	err := s.execute(ctx, "emails.labels", func(ctx context.Context) error {
		var callErr error
		labels, callErr = s.api.Labels(ctx)
		return callErr
	})
	return labels, err
}

func (s *MailboxService) GenerateReply(ctx context.Context, emailID string) (string, error) {
	var content string
	err := s.execute(ctx, "emails.generate", func(ctx context.Context) error {
		var callErr error
		content, callErr = s.api.GenerateResponse(ctx, emailID)
		return callErr
	})
	return content, err
}

// SendReply enforces the local reply budget before calling out. A
// locally paced rejection carries the rate-limited kind but is not
// broadcast; only a backend throttle reaches the bus. Replies are
// never retried because a timed-out send may still have been
// delivered.
func (s *MailboxService) SendReply(ctx context.Context, emailID, content string, useGenerated bool) (domain.ReplyReceipt, error) {
	if s.pace != nil && !s.pace.Allow() {
		return domain.ReplyReceipt{}, domain.WrapError(domain.ErrRateLimited, "emails.reply", errReplyPaced)
	}

	receipt, err := s.api.Reply(ctx, emailID, content, useGenerated)
	if err != nil {
		return domain.ReplyReceipt{}, err
	}
	s.logger.Info("reply_sent", "email_id", emailID, "response_id", receipt.ResponseID)
	return receipt, nil
}

func (s *MailboxService) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if s.executor == nil {
		return fn(ctx)
	}
	return s.executor.Execute(ctx, operation, fn)
}

// offline reports failures where stale data beats an error screen.
func offline(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return domain.IsKind(err, domain.ErrTemporary) || resilience.IsCircuitOpen(err)
}
