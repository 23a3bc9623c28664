// Package extract turns downloaded document bytes into terminal-sized
// text previews.
package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const defaultMaxChars = 4000

// Registry picks an extractor by content type, falling back to the
// filename extension and finally to plain text.
type Registry struct {
	maxChars int
}

func NewRegistry(maxChars int) *Registry {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Registry{maxChars: maxChars}
}

func (e *Registry) Extract(ctx context.Context, contentType, filename string, r io.Reader) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var text string
	var err error
	switch kind(contentType, filename) {
	case "pdf":
		text, err = e.pdfText(r)
	case "xlsx":
		text, err = e.xlsxText(r)
	case "html":
		text, err = e.htmlText(r)
	default:
		text, err = e.plainText(filename, r)
	}
	if err != nil {
		return "", false, err
	}

	clipped, truncated := clip(text, e.maxChars)
	return clipped, truncated, nil
}

func kind(contentType, filename string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return "pdf"
		case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
			return "xlsx"
		case "text/html":
			return "html"
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".html", ".htm":
		return "html"
	}
	return "plain"
}

func (e *Registry) plainText(filename string, r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, int64(e.maxChars)*4))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("no text preview for binary file %s", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}

func clip(text string, maxChars int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	return string(runes[:maxChars]), true
}
