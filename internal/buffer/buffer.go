// Package buffer is the append-only scratch store for intermediate synthesis
// text. Independent of the corpus: the external orchestrator writes it,
// exports it as one artifact, and clears it on reset.
package buffer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"litcorpus/internal/store"
)

// Delimiter separates entries in the exported artifact.
const Delimiter = "\n\n"

// Log is a store-backed Buffer Log; entries survive restarts alongside the
// corpus.
type Log struct {
	store store.Store
}

// NewLog returns a Buffer Log over st.
func NewLog(st store.Store) *Log {
	return &Log{store: st}
}

// Add appends one text blob.
func (l *Log) Add(ctx context.Context, text string) (store.Entry, error) {
	return l.store.AppendBuffer(ctx, text)
}

// Entries returns all blobs in append order.
func (l *Log) Entries(ctx context.Context) ([]store.Entry, error) {
	return l.store.ListBuffers(ctx)
}

// Export writes the concatenation of all entries, in append order, to path.
// The log is not cleared.
func (l *Log) Export(ctx context.Context, path string) (int, error) {
	entries, err := l.store.ListBuffers(ctx)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating export directory: %w", err)
		}
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	if err := os.WriteFile(path, []byte(strings.Join(texts, Delimiter)), 0o644); err != nil {
		return 0, fmt.Errorf("writing export: %w", err)
	}
	return len(entries), nil
}

// Clear empties the log.
func (l *Log) Clear(ctx context.Context) error {
	return l.store.ClearBuffers(ctx)
}
