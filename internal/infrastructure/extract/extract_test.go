package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestPlainTextPassesThrough(t *testing.T) {
	e := NewRegistry(0)
	text, truncated, err := e.Extract(context.Background(), "text/plain", "notes.txt", strings.NewReader("  hello\nworld  "))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello\nworld" {
		t.Fatalf("unexpected text %q", text)
	}
	if truncated {
		t.Fatal("expected no truncation")
	}
}

func TestBinaryContentIsRejected(t *testing.T) {
	e := NewRegistry(0)
	_, _, err := e.Extract(context.Background(), "application/octet-stream", "blob.bin", bytes.NewReader([]byte{0xff, 0xfe, 0x00, 0x01}))
	if err == nil {
		t.Fatal("expected an error for binary content")
	}
}

func TestPreviewIsClippedAtCap(t *testing.T) {
	e := NewRegistry(10)
	text, truncated, err := e.Extract(context.Background(), "text/plain", "big.txt", strings.NewReader(strings.Repeat("a", 50)))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(text) != 10 || !truncated {
		t.Fatalf("expected a 10-char truncated preview, got %d chars (truncated=%t)", len(text), truncated)
	}
}

func TestHTMLMarkupIsStripped(t *testing.T) {
	raw := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>` +
		`<body><p>Hello <b>Dana</b>,</p><p>see the   attached invoice.</p><br/>Regards</body></html>`
	e := NewRegistry(0)
	text, _, err := e.Extract(context.Background(), "text/html", "mail.html", strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Contains(text, "<") || strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Fatalf("markup leaked into preview: %q", text)
	}
	for _, want := range []string{"Hello Dana,", "see the attached invoice.", "Regards"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in preview %q", want, text)
		}
	}
}

func TestWorkbookRowsBecomeText(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "item"); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}
	if err := f.SetCellValue("Sheet1", "B1", "price"); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}
	if err := f.SetCellValue("Sheet1", "A2", "paper"); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	e := NewRegistry(0)
	text, _, err := e.Extract(context.Background(), "", "budget.xlsx", buf)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "item\tprice") || !strings.Contains(text, "paper") {
		t.Fatalf("expected sheet rows in preview, got %q", text)
	}
}

func TestMalformedPDFFailsCleanly(t *testing.T) {
	e := NewRegistry(0)
	_, _, err := e.Extract(context.Background(), "application/pdf", "broken.pdf", strings.NewReader("%PDF-1.4 garbage"))
	if err == nil {
		t.Fatal("expected an error for a malformed pdf")
	}
}
