package backend

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type emailDTO struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Body     string   `json:"body"`
	Labels   []string `json:"labels"`
	Date     string   `json:"date"`
	IsUnread bool     `json:"is_unread"`
}

func (d emailDTO) toDomain() domain.Email {
	return domain.Email{
		ID:       d.ID,
		ThreadID: d.ThreadID,
		Subject:  d.Subject,
		From:     d.From,
		To:       d.To,
		Body:     d.Body,
		Labels:   d.Labels,
		Date:     parseEmailDate(d.Date),
		IsUnread: d.IsUnread,
	}
}

// parseEmailDate handles the provider's epoch-millisecond strings plus
// ISO timestamps with or without an offset. Unparseable dates collapse
// to the zero time instead of failing the listing.
func parseEmailDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (c *Client) ListEmails(ctx context.Context, filter domain.EmailFilter) (domain.EmailPage, error) {
	q := url.Values{}
	// The backend defaults unread_only to true, so the flag always
	// travels explicitly.
	q.Set("unread_only", strconv.FormatBool(filter.UnreadOnly))
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Label != "" {
		q.Set("status", filter.Label)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	var out struct {
		Emails []emailDTO `json:"emails"`
		Total  int        `json:"total"`
		Offset int        `json:"offset"`
		Limit  int        `json:"limit"`
	}
	if err := c.getJSON(ctx, "/emails/?"+q.Encode(), &out, "emails.list"); err != nil {
		return domain.EmailPage{}, err
	}

	page := domain.EmailPage{
		Emails: make([]domain.Email, 0, len(out.Emails)),
		Total:  out.Total,
		Offset: out.Offset,
		Limit:  out.Limit,
	}
	for _, dto := range out.Emails {
		page.Emails = append(page.Emails, dto.toDomain())
	}
	return page, nil
}

func (c *Client) GetEmail(ctx context.Context, emailID string) (domain.Email, error) {
	var out emailDTO
	if err := c.getJSON(ctx, "/emails/"+url.PathEscape(emailID), &out, "emails.get"); err != nil {
		return domain.Email{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) Thread(ctx context.Context, emailID string) ([]domain.Email, error) {
	var out struct {
		Messages []emailDTO `json:"messages"`
	}
	if err := c.getJSON(ctx, "/emails/"+url.PathEscape(emailID)+"/thread", &out, "emails.thread"); err != nil {
		return nil, err
	}

	messages := make([]domain.Email, 0, len(out.Messages))
	for _, dto := range out.Messages {
		messages = append(messages, dto.toDomain())
	}
	return messages, nil
}

func (c *Client) Labels(ctx context.Context) ([]domain.Label, error) {
	var out struct {
		Labels []domain.Label `json:"labels"`
	}
	if err := c.getJSON(ctx, "/emails/labels", &out, "emails.labels"); err != nil {
		return nil, err
	}
	return out.Labels, nil
}

// GenerateResponse asks the assistant for a suggested reply without
// sending anything.
func (c *Client) GenerateResponse(ctx context.Context, emailID string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.postJSON(ctx, "/emails/"+url.PathEscape(emailID)+"/generate-response", nil, &out, "emails.generate"); err != nil {
		return "", err
	}
	return out.Content, nil
}

// Reply sends a reply, optionally letting the backend substitute its
// generated draft. This endpoint is the backend's throttled surface.
func (c *Client) Reply(ctx context.Context, emailID, content string, useGenerated bool) (domain.ReplyReceipt, error) {
	payload := struct {
		Content      string `json:"content"`
		UseGenerated bool   `json:"use_generated"`
	}{Content: content, UseGenerated: useGenerated}

	var out domain.ReplyReceipt
	if err := c.postJSON(ctx, "/emails/"+url.PathEscape(emailID)+"/reply", payload, &out, "emails.reply"); err != nil {
		return domain.ReplyReceipt{}, err
	}
	return out, nil
}
