package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"litcorpus/internal/corpus"
)

// Entry is one buffered text blob in the Buffer Log.
type Entry struct {
	ID        uuid.UUID
	Seq       int
	Text      string
	CreatedAt time.Time
}

// Snapshot is the durable corpus state reconstructed by Load. Documents are
// ordered by their stored sequence number, not by storage insertion order.
type Snapshot struct {
	Documents []corpus.Document
	Buffers   []Entry
}

// Store is the durable on-disk representation of the corpus.
//
// CommitDocument is atomic per document: a crash mid-commit leaves the store
// as it was before the call. That single guarantee is what makes bulk
// ingestion resumable.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	CommitDocument(ctx context.Context, doc corpus.Document) error
	AppendBuffer(ctx context.Context, text string) (Entry, error)
	ListBuffers(ctx context.Context) ([]Entry, error)
	ClearBuffers(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
}

// CorruptionError reports a durable record that exists but cannot be parsed.
// Fatal for the corpus: the operator must reset explicitly; the engine never
// silently discards an unreadable-but-present state record.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt corpus state at %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }
