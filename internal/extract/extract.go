// Package extract pulls linear text out of source documents. PDF parsing is
// delegated to an external library; the rest of the engine only sees the
// Extractor interface.
package extract

import (
	"context"
	"fmt"
)

// Extractor converts a source file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractionError reports a source that exists but could not be parsed.
// Distinct from plain I/O errors (missing or unreadable files) so batch
// ingestion can tell "skip this one" apart from "the path is wrong".
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
