package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type bodyRecorder struct {
	io.Reader
	closed bool
}

func (b *bodyRecorder) Close() error {
	b.closed = true
	return nil
}

type documentAPIFake struct {
	mu sync.Mutex

	listPage  domain.DocumentPage
	listErrs  []error
	listCalls int

	deleteErr   error
	deleteCalls int

	body        *bodyRecorder
	downloadErr error
}

func (f *documentAPIFake) ListDocuments(context.Context, int, int) (domain.DocumentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := nextErr(&f.listErrs); err != nil {
		return domain.DocumentPage{}, err
	}
	return f.listPage, nil
}

func (f *documentAPIFake) DeleteDocument(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *documentAPIFake) Download(context.Context, string) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.body, nil
}

type documentCacheFake struct {
	mu        sync.Mutex
	saved     []domain.DocumentPage
	page      domain.DocumentPage
	missing   bool
	listCalls int
}

func (f *documentCacheFake) SaveDocuments(_ context.Context, page domain.DocumentPage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, page)
	return nil
}

func (f *documentCacheFake) ListDocuments(context.Context, int, int) (domain.DocumentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.missing {
		return domain.DocumentPage{}, domain.WrapError(domain.ErrNotFound, "cache.documents", errors.New("no cached page"))
	}
	return f.page, nil
}

type extractorFake struct {
	text      string
	truncated bool
	err       error

	gotContentType string
	gotFilename    string
	gotBytes       []byte
}

func (f *extractorFake) Extract(_ context.Context, contentType, filename string, r io.Reader) (string, bool, error) {
	f.gotContentType = contentType
	f.gotFilename = filename
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", false, err
	}
	f.gotBytes = raw
	if f.err != nil {
		return "", false, f.err
	}
	return f.text, f.truncated, nil
}

func TestDocumentListWritesThroughToCache(t *testing.T) {
	api := &documentAPIFake{listPage: domain.DocumentPage{Documents: []domain.Document{{ID: "d-1"}}, Total: 1}}
	cache := &documentCacheFake{}
	s := NewDocumentService(api, cache, &extractorFake{}, nil, nil)

	page, err := s.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Stale {
		t.Fatal("expected a live page")
	}
	if len(cache.saved) != 1 {
		t.Fatalf("expected one cache write, got %d", len(cache.saved))
	}
}

func TestDocumentListServesCacheWhenBackendUnreachable(t *testing.T) {
	api := &documentAPIFake{listErrs: []error{backendDown()}}
	cache := &documentCacheFake{page: domain.DocumentPage{Documents: []domain.Document{{ID: "d-1"}}}}
	s := NewDocumentService(api, cache, &extractorFake{}, nil, nil)

	page, err := s.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !page.Stale || len(page.Documents) != 1 {
		t.Fatalf("expected the cached page marked stale, got %+v", page)
	}
}

func TestDocumentListCacheMissKeepsOriginalError(t *testing.T) {
	api := &documentAPIFake{listErrs: []error{backendDown()}}
	cache := &documentCacheFake{missing: true}
	s := NewDocumentService(api, cache, &extractorFake{}, nil, nil)

	if _, err := s.List(context.Background(), 20, 0); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected the backend error, got %v", err)
	}
}

func TestDeleteFailureIsSwallowed(t *testing.T) {
	api := &documentAPIFake{deleteErr: backendDown()}
	s := NewDocumentService(api, nil, &extractorFake{}, nil, nil)

	if err := s.Delete(context.Background(), "d-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if api.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", api.deleteCalls)
	}
}

func TestPreviewExtractsDownloadedBytes(t *testing.T) {
	body := &bodyRecorder{Reader: bytes.NewReader([]byte("raw document bytes"))}
	api := &documentAPIFake{body: body}
	extractor := &extractorFake{text: "extracted text", truncated: true}
	s := NewDocumentService(api, nil, extractor, nil, nil)

	doc := domain.Document{ID: "d-1", Filename: "report.pdf", ContentType: "application/pdf"}
	preview, err := s.Preview(context.Background(), doc)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview.Text != "extracted text" || !preview.Truncated || preview.Document.ID != "d-1" {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if extractor.gotContentType != "application/pdf" || extractor.gotFilename != "report.pdf" {
		t.Fatalf("expected the document metadata to reach the extractor, got %q %q", extractor.gotContentType, extractor.gotFilename)
	}
	if string(extractor.gotBytes) != "raw document bytes" {
		t.Fatalf("unexpected bytes %q", extractor.gotBytes)
	}
	if !body.closed {
		t.Fatal("expected the download body to be closed")
	}
}

func TestPreviewExtractionFailureIsInvalidInput(t *testing.T) {
	api := &documentAPIFake{body: &bodyRecorder{Reader: bytes.NewReader([]byte{0x00, 0x01})}}
	s := NewDocumentService(api, nil, &extractorFake{err: errors.New("binary content")}, nil, nil)

	_, err := s.Preview(context.Background(), domain.Document{ID: "d-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
}

func TestPreviewDownloadFailureKeepsItsKind(t *testing.T) {
	api := &documentAPIFake{downloadErr: domain.WrapError(domain.ErrNotFound, "backend.download", errors.New("gone"))}
	s := NewDocumentService(api, nil, &extractorFake{}, nil, nil)

	_, err := s.Preview(context.Background(), domain.Document{ID: "d-1"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
	if domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected the transport kind untouched, got %v", err)
	}
}
