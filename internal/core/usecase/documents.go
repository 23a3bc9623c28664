package usecase

import (
	"context"
	"log/slog"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/infrastructure/resilience"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

// DocumentService drives the document manager: cached listings,
// previews and removals.
type DocumentService struct {
	api       ports.DocumentAPI
	cache     ports.DocumentCache
	extractor ports.PreviewExtractor
	executor  *resilience.Executor
	logger    *slog.Logger
}

func NewDocumentService(
	api ports.DocumentAPI,
	cache ports.DocumentCache,
	extractor ports.PreviewExtractor,
	executor *resilience.Executor,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = logging.Discard("documents")
	}
	return &DocumentService{
		api:       api,
		cache:     cache,
		extractor: extractor,
		executor:  executor,
		logger:    logger,
	}
}

// List serves a document page, falling back to the local cache when
// the backend is unreachable. Cached pages come back marked stale.
func (s *DocumentService) List(ctx context.Context, limit, offset int) (domain.DocumentPage, error) {
	var page domain.DocumentPage
	err := s.execute(ctx, "documents.list", func(ctx context.Context) error {
		var callErr error
		page, callErr = s.api.ListDocuments(ctx, limit, offset)
		return callErr
	})
	if err == nil {
		if s.cache != nil {
			if cacheErr := s.cache.SaveDocuments(ctx, page); cacheErr != nil {
				s.logger.Warn("document_cache_write_failed", "error", cacheErr)
			}
		}
		return page, nil
	}

	if s.cache == nil || !offline(err) {
		return domain.DocumentPage{}, err
	}
	cached, cacheErr := s.cache.ListDocuments(ctx, limit, offset)
	if cacheErr != nil {
		return domain.DocumentPage{}, err
	}
	cached.Stale = true
	s.logger.Info("serving_cached_documents", "error", err)
	return cached, nil
}

// Delete reports success even when the backend call fails; the failure
// is logged and the next listing shows the actual outcome.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteDocument(ctx, id); err != nil {
		s.logger.Error("document_delete_failed", "document_id", id, "error", err)
		return nil
	}
	s.logger.Info("document_deleted", "document_id", id)
	return nil
}

// Preview downloads the document and extracts display text. Extraction
// failures carry the invalid-input kind; transport failures keep their
// own.
func (s *DocumentService) Preview(ctx context.Context, doc domain.Document) (domain.Preview, error) {
	body, err := s.api.Download(ctx, doc.ID)
	if err != nil {
		return domain.Preview{}, err
	}
	defer body.Close()

	text, truncated, err := s.extractor.Extract(ctx, doc.ContentType, doc.Filename, body)
	if err != nil {
		return domain.Preview{}, domain.WrapError(domain.ErrInvalidInput, "documents.preview", err)
	}
	return domain.Preview{Document: doc, Text: text, Truncated: truncated}, nil
}

func (s *DocumentService) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if s.executor == nil {
		return fn(ctx)
	}
	return s.executor.Execute(ctx, operation, fn)
}
