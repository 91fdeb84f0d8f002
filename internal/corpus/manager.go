package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"litcorpus/internal/chunker"
	"litcorpus/internal/events"
	"litcorpus/internal/extract"
)

// Separator placed between documents when the corpus is concatenated.
var separator = "\n\n" + strings.Repeat("=", 80) + "\n\n"

// Committer is the slice of the state store the manager writes through.
type Committer interface {
	CommitDocument(ctx context.Context, doc Document) error
	Reset(ctx context.Context) error
}

// Options tunes per-ingest chunk materialization.
type Options struct {
	ChunksDir    string
	ChunkSize    int
	ChunkOverlap int
	WriteChunks  bool
}

// Manager owns the in-memory corpus and drives extraction, key assignment and
// persistence. Single-writer: one caller issues one operation at a time, so
// there is no internal locking; ordering is the discipline that keeps the
// store consistent (commit completes before memory reflects the document).
type Manager struct {
	log       *slog.Logger
	store     Committer
	extractor extract.Extractor
	events    events.Publisher
	opts      Options

	docs     []Document
	byPath   map[string]int
	keys     map[string]struct{}
	revision int
}

// SkippedFile records one per-file failure during a directory ingest.
type SkippedFile struct {
	Path string
	Err  error
}

// Report summarizes a directory ingest. A bad file never aborts the batch; it
// lands in Skipped instead.
type Report struct {
	Loaded         int
	AlreadyPresent int
	Skipped        []SkippedFile
}

// NewManager restores a manager around previously loaded documents. The docs
// slice must already be in ingestion order (the store recovers that order by
// sequence number).
func NewManager(log *slog.Logger, st Committer, ex extract.Extractor, pub events.Publisher, docs []Document, opts Options) *Manager {
	m := &Manager{
		log:       log,
		store:     st,
		extractor: ex,
		events:    pub,
		opts:      opts,
		byPath:    make(map[string]int, len(docs)),
		keys:      make(map[string]struct{}, len(docs)),
	}
	m.docs = append(m.docs, docs...)
	for i, d := range m.docs {
		m.byPath[d.SourcePath] = i
		m.keys[d.Key] = struct{}{}
	}
	return m
}

// IngestFile loads one source into the corpus. Idempotent: a path already in
// the ingestion cursor returns its existing document without re-extraction.
// The document is committed to the store before it appears in memory.
func (m *Manager) IngestFile(ctx context.Context, path string) (Document, error) {
	path = filepath.Clean(path)
	if i, ok := m.byPath[path]; ok {
		return m.docs[i], nil
	}

	text, err := m.extractText(ctx, path)
	if err != nil {
		return Document{}, err
	}

	key, meta := GenerateKey(filepath.Base(path), m.keys)
	doc := Document{
		Index:      len(m.docs),
		Key:        key,
		SourcePath: path,
		Text:       text,
		Meta:       meta,
	}

	if err := m.store.CommitDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	m.docs = append(m.docs, doc)
	m.byPath[path] = doc.Index
	m.keys[key] = struct{}{}
	m.revision++

	m.log.Info("ingested document", "key", doc.Key, "index", doc.Index, "chars", len(text))

	if m.opts.WriteChunks {
		chunkOpts := chunker.Options{Size: m.opts.ChunkSize, Overlap: m.opts.ChunkOverlap}
		if _, err := chunker.Materialize(m.opts.ChunksDir, doc.Key, doc.Text, chunkOpts); err != nil {
			m.log.Warn("chunk materialization failed", "key", doc.Key, "err", err)
		}
	}
	m.publish(ctx, events.Event{
		Type:       events.EventDocumentIngested,
		Key:        doc.Key,
		SourcePath: doc.SourcePath,
		Index:      doc.Index,
		Chars:      len(doc.Text),
	})
	return doc, nil
}

// IngestDirectory ingests every PDF in dir in lexicographic filename order.
// Already-committed paths are skipped without re-extraction, so re-running
// after an interruption completes the remainder in the same relative order.
func (m *Manager) IngestDirectory(ctx context.Context, dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("reading corpus directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var report Report
	for _, name := range names {
		path := filepath.Join(dir, name)
		if m.Contains(path) {
			report.AlreadyPresent++
			continue
		}
		if _, err := m.IngestFile(ctx, path); err != nil {
			m.log.Warn("skipping file", "path", path, "err", err)
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		report.Loaded++
	}
	return report, nil
}

// Reset clears the in-memory corpus, deletes all durable state and removes
// materialized chunk files. Destructive and irreversible.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.store.Reset(ctx); err != nil {
		return err
	}
	if m.opts.ChunksDir != "" {
		if err := os.RemoveAll(m.opts.ChunksDir); err != nil {
			return fmt.Errorf("removing chunk files: %w", err)
		}
	}
	m.docs = nil
	m.byPath = make(map[string]int)
	m.keys = make(map[string]struct{})
	m.revision++

	m.log.Info("corpus reset")
	m.publish(ctx, events.Event{Type: events.EventCorpusReset})
	return nil
}

// Contains reports whether path is already in the ingestion cursor.
func (m *Manager) Contains(path string) bool {
	_, ok := m.byPath[filepath.Clean(path)]
	return ok
}

// Documents returns the corpus in ingestion order. The slice is a copy; the
// documents themselves are immutable.
func (m *Manager) Documents() []Document {
	out := make([]Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Get returns the document at index.
func (m *Manager) Get(index int) (Document, bool) {
	if index < 0 || index >= len(m.docs) {
		return Document{}, false
	}
	return m.docs[index], true
}

// GetByKey returns the document with the given key.
func (m *Manager) GetByKey(key string) (Document, bool) {
	for _, d := range m.docs {
		if d.Key == key {
			return d, true
		}
	}
	return Document{}, false
}

// Len returns the number of ingested documents.
func (m *Manager) Len() int { return len(m.docs) }

// TotalChars returns the summed length of all document texts.
func (m *Manager) TotalChars() int {
	total := 0
	for _, d := range m.docs {
		total += len(d.Text)
	}
	return total
}

// Revision increases on every mutation; read paths use it to key caches.
func (m *Manager) Revision() int { return m.revision }

// Concatenated renders the whole corpus as one text: each document's banner
// header and text, joined by the corpus separator.
func (m *Manager) Concatenated() string {
	parts := make([]string, 0, len(m.docs))
	for _, d := range m.docs {
		parts = append(parts, d.Header()+"\n\n"+d.Text)
	}
	return strings.Join(parts, separator)
}

// MaterializeDocument writes one document's chunk files to dir.
func (m *Manager) MaterializeDocument(index int, dir string, opts chunker.Options) ([]string, error) {
	doc, ok := m.Get(index)
	if !ok {
		return nil, fmt.Errorf("document index %d out of range (0-%d)", index, len(m.docs)-1)
	}
	return chunker.Materialize(dir, doc.Key, doc.Text, opts)
}

// MaterializeCorpus writes chunk files covering the concatenated corpus.
func (m *Manager) MaterializeCorpus(dir string, opts chunker.Options) ([]string, error) {
	return chunker.Materialize(dir, "corpus", m.Concatenated(), opts)
}

func (m *Manager) extractText(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return m.extractor.Extract(ctx, path)
	}
	// Non-PDF sources are read as plain text.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *Manager) publish(ctx context.Context, ev events.Event) {
	ev.At = time.Now().UTC()
	if err := m.events.Publish(ctx, ev); err != nil {
		m.log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
