// Package events notifies the external orchestrator about corpus changes.
// The engine itself never consumes these; they exist so a controller driving
// ingestion can react (for example, hand fresh chunk files to a downstream
// summarizer) without polling the store.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates published event categories.
type EventType string

const (
	EventDocumentIngested EventType = "document.ingested"
	EventCorpusReset      EventType = "corpus.reset"
)

// Event describes one corpus change.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	Key        string    `json:"key,omitempty"`
	SourcePath string    `json:"source_path,omitempty"`
	Index      int       `json:"index,omitempty"`
	Chars      int       `json:"chars,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher exposes a minimal contract to emit corpus events. Publishing is
// best-effort: the corpus manager logs failures and carries on, since the
// durable store, not the event stream, is the source of truth.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
