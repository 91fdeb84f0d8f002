// Package chunker computes overlapping character windows over text and can
// materialize them as addressable files for external consumption.
package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Span is a half-open [Start, End) window into a text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Options controls window sizing. Overlap must be smaller than Size.
type Options struct {
	Size    int
	Overlap int
}

// ConfigurationError reports chunk parameters the caller must fix before
// retrying; it is never retried automatically.
type ConfigurationError struct {
	Param string
	Value int
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid chunk parameter %s=%d: %s", e.Param, e.Value, e.Msg)
}

// Bounds returns the ordered chunk windows covering [0, length). The first
// chunk starts at 0, each subsequent chunk starts overlap characters before
// the previous end, and iteration stops once a chunk reaches length.
func Bounds(length int, opts Options) ([]Span, error) {
	if opts.Size <= 0 {
		return nil, &ConfigurationError{Param: "size", Value: opts.Size, Msg: "must be > 0"}
	}
	if opts.Overlap < 0 {
		return nil, &ConfigurationError{Param: "overlap", Value: opts.Overlap, Msg: "must be >= 0"}
	}
	if opts.Overlap >= opts.Size {
		return nil, &ConfigurationError{Param: "overlap", Value: opts.Overlap, Msg: "must be < size"}
	}
	if length <= 0 {
		return nil, &ConfigurationError{Param: "length", Value: length, Msg: "nothing to chunk"}
	}

	var spans []Span
	start := 0
	for {
		end := start + opts.Size
		if end > length {
			end = length
		}
		spans = append(spans, Span{Start: start, End: end})
		if end == length {
			return spans, nil
		}
		start = end - opts.Overlap
	}
}

// Characters unsafe in filenames on either POSIX or Windows.
var unsafeKeyRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// Materialize writes each chunk of text to dir as <key>_chunk_<NNNN>.txt and
// returns the written paths in chunk order. Each file is written to a temp
// name and renamed so a partially written chunk file is never observable;
// re-running with identical inputs produces the same names and content.
func Materialize(dir, key, text string, opts Options) ([]string, error) {
	spans, err := Bounds(len(text), opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}

	safeKey := unsafeKeyRe.ReplaceAllString(key, "_")
	paths := make([]string, 0, len(spans))
	for i, span := range spans {
		path := filepath.Join(dir, fmt.Sprintf("%s_chunk_%04d.txt", safeKey, i))
		if err := writeAtomic(path, []byte(text[span.Start:span.End])); err != nil {
			return nil, fmt.Errorf("writing chunk %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
