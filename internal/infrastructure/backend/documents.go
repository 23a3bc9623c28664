package backend

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/maildeck/maildeck/internal/core/domain"
)

func (c *Client) ListDocuments(ctx context.Context, limit, offset int) (domain.DocumentPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/documents/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out domain.DocumentPage
	if err := c.getJSON(ctx, path, &out, "documents.list"); err != nil {
		return domain.DocumentPage{}, err
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.deleteJSON(ctx, "/documents/"+url.PathEscape(id), nil, "documents.delete")
}

// Download streams the stored document bytes; the caller closes the
// reader.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	body, _, err := c.download(ctx, "/documents/"+url.PathEscape(id)+"/download", "documents.download")
	return body, err
}
