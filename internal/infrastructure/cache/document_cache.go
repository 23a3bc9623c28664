package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// DocumentCache stores the single document listing; the backend has no
// document filters, so windows are keyed by position alone.
type DocumentCache struct {
	db *sql.DB
}

func NewDocumentCache(db *sql.DB) *DocumentCache {
	return &DocumentCache{db: db}
}

func (c *DocumentCache) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS cached_documents (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	created_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS document_listings (
	singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
	total INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
);
`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

func (c *DocumentCache) SaveDocuments(ctx context.Context, page domain.DocumentPage) error {
	end := page.Offset + len(page.Documents)
	if page.Limit > len(page.Documents) {
		end = page.Offset + page.Limit
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM cached_documents WHERE position >= ? AND position < ?
`, page.Offset, end); err != nil {
		return fmt.Errorf("clear cached window: %w", err)
	}

	for i, doc := range page.Documents {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cached_documents (position, id, filename, content_type, status, created_ms)
VALUES (?,?,?,?,?,?)
`,
			page.Offset+i, doc.ID, doc.Filename, doc.ContentType, string(doc.Status), doc.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert cached document: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO document_listings (singleton, total, fetched_at) VALUES (1,?,?)
ON CONFLICT(singleton) DO UPDATE SET total = excluded.total, fetched_at = excluded.fetched_at
`, page.Total, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache tx: %w", err)
	}
	return nil
}

func (c *DocumentCache) ListDocuments(ctx context.Context, limit, offset int) (domain.DocumentPage, error) {
	var total int
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx, `
SELECT total, fetched_at FROM document_listings WHERE singleton = 1
`).Scan(&total, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DocumentPage{}, domain.WrapError(domain.ErrNotFound, "cache.documents", err)
		}
		return domain.DocumentPage{}, fmt.Errorf("scan listing: %w", err)
	}

	queryLimit := limit
	if queryLimit <= 0 {
		queryLimit = -1
	}
	rows, err := c.db.QueryContext(ctx, `
SELECT id, filename, content_type, status, created_ms
FROM cached_documents
ORDER BY position
LIMIT ? OFFSET ?
`, queryLimit, offset)
	if err != nil {
		return domain.DocumentPage{}, fmt.Errorf("query cached documents: %w", err)
	}
	defer rows.Close()

	page := domain.DocumentPage{Total: total, Offset: offset, Limit: limit}
	for rows.Next() {
		var doc domain.Document
		var status string
		var createdMS int64
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentType, &status, &createdMS); err != nil {
			return domain.DocumentPage{}, fmt.Errorf("scan cached document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		if createdMS != 0 {
			doc.CreatedAt = time.UnixMilli(createdMS).UTC()
		}
		page.Documents = append(page.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return domain.DocumentPage{}, fmt.Errorf("iterate cached documents: %w", err)
	}
	return page, nil
}
