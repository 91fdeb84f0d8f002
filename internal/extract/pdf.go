package extract

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text with ledongthuc/pdf. Page texts are joined with newlines;
// pages that fail to decode are skipped rather than failing the document.
type PDF struct{}

// NewPDF returns a PDF extractor.
func NewPDF() *PDF { return &PDF{} }

// Extract reads the file at path and returns its plain text. A missing or
// unreadable file surfaces as the underlying *fs.PathError; a file that reads
// but does not parse surfaces as *ExtractionError.
func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
