package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// EmailCache stores one listing window per filter signature. Pagination
// offsets within a filter share rows; different filters never mix.
type EmailCache struct {
	db *sql.DB
}

func NewEmailCache(db *sql.DB) *EmailCache {
	return &EmailCache{db: db}
}

func (c *EmailCache) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS cached_emails (
	filter_key TEXT NOT NULL,
	position INTEGER NOT NULL,
	id TEXT NOT NULL,
	thread_id TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	sender TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	labels TEXT NOT NULL DEFAULT '[]',
	date_ms INTEGER NOT NULL DEFAULT 0,
	is_unread INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (filter_key, position)
);

CREATE TABLE IF NOT EXISTS email_listings (
	filter_key TEXT PRIMARY KEY,
	total INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
);
`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

// SaveEmails replaces the cached window the page covers and records the
// listing total.
func (c *EmailCache) SaveEmails(ctx context.Context, filter domain.EmailFilter, page domain.EmailPage) error {
	key := emailFilterKey(filter)

	end := page.Offset + len(page.Emails)
	if page.Limit > len(page.Emails) {
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
DELETE FROM cached_emails WHERE filter_key = ? AND position >= ? AND position < ?
`, key, page.Offset, end); err != nil {
		return fmt.Errorf("clear cached window: %w", err)
	}

	for i, email := range page.Emails {
		labelsJSON, err := json.Marshal(email.Labels)
		if err != nil {
			return fmt.Errorf("marshal labels: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cached_emails (
	filter_key, position, id, thread_id, subject, sender, recipient, body, labels, date_ms, is_unread
) VALUES (?,?,?,?,?,?,?,?,?,?,?)
`,
			key, page.Offset+i, email.ID, email.ThreadID, email.Subject, email.From, email.To,
			email.Body, labelsJSON, email.Date.UnixMilli(), email.IsUnread,
		); err != nil {
			return fmt.Errorf("insert cached email: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO email_listings (filter_key, total, fetched_at) VALUES (?,?,?)
ON CONFLICT(filter_key) DO UPDATE SET total = excluded.total, fetched_at = excluded.fetched_at
`, key, page.Total, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache tx: %w", err)
	}
	return nil
}

// ListEmails serves a cached window. A filter that was never cached
// reports the not-found kind so callers can tell "no cache" from an
// empty mailbox.
func (c *EmailCache) ListEmails(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error) {
	key := emailFilterKey(filter)

	var total int
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx, `
SELECT total, fetched_at FROM email_listings WHERE filter_key = ?
`, key).Scan(&total, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EmailPage{}, domain.WrapError(domain.ErrNotFound, "cache.emails", err)
		}
		return domain.EmailPage{}, fmt.Errorf("scan listing: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, `
SELECT id, thread_id, subject, sender, recipient, body, labels, date_ms, is_unread
FROM cached_emails
WHERE filter_key = ?
ORDER BY position
LIMIT ? OFFSET ?
`, key, limit, filter.Offset)
	if err != nil {
		return domain.EmailPage{}, fmt.Errorf("query cached emails: %w", err)
	}
	defer rows.Close()

	page := domain.EmailPage{Total: total, Offset: filter.Offset, Limit: filter.Limit}
	for rows.Next() {
		var email domain.Email
		var labelsRaw []byte
		var dateMS int64
		if err := rows.Scan(
			&email.ID, &email.ThreadID, &email.Subject, &email.From, &email.To,
			&email.Body, &labelsRaw, &dateMS, &email.IsUnread,
		); err != nil {
			return domain.EmailPage{}, fmt.Errorf("scan cached email: %w", err)
		}
		if err := json.Unmarshal(labelsRaw, &email.Labels); err != nil {
			return domain.EmailPage{}, fmt.Errorf("unmarshal labels: %w", err)
		}
		if dateMS != 0 {
			email.Date = time.UnixMilli(dateMS).UTC()
		}
		page.Emails = append(page.Emails, email)
	}
	if err := rows.Err(); err != nil {
		return domain.EmailPage{}, fmt.Errorf("iterate cached emails: %w", err)
	}
	return page, nil
}

func emailFilterKey(filter domain.EmailFilter) string {
	return fmt.Sprintf("unread=%t|search=%s|label=%s", filter.UnreadOnly, filter.Search, filter.Label)
}
