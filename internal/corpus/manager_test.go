package corpus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"litcorpus/internal/corpus"
	"litcorpus/internal/events"
	"litcorpus/internal/extract"
	"litcorpus/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newManager(t *testing.T, st store.Store, ex extract.Extractor, opts corpus.Options) *corpus.Manager {
	t.Helper()
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("loading store: %v", err)
	}
	return corpus.NewManager(testLogger(), st, ex, events.NewNoop(), snap.Documents, opts)
}

// writePDFs creates empty placeholder files; extraction is mocked.
func writePDFs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIngestFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Smith - 2020 - A Study.pdf")
	path := filepath.Join(dir, "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, path).Return("the study text", nil).Once()

	m := newManager(t, newTestStore(t), ex, corpus.Options{})

	first, err := m.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := m.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first.Key != "smith2020study" {
		t.Errorf("key = %q, want smith2020study", first.Key)
	}
	if second.Index != first.Index || second.Key != first.Key {
		t.Errorf("re-ingest returned a different document: %+v vs %+v", second, first)
	}
	if m.Len() != 1 {
		t.Errorf("corpus has %d documents, want 1", m.Len())
	}
	ex.AssertExpectations(t) // Extract called exactly once
}

func TestIngestDirectoryOrderAndKeys(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir,
		"Smith - 2020 - A Study.pdf",
		"Smith - 2020 - A Study (copy).pdf",
		"Adams - 2019 - Birds.pdf",
	)

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	report, err := m.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ingest directory: %v", err)
	}
	if report.Loaded != 3 || report.AlreadyPresent != 0 || len(report.Skipped) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	docs := m.Documents()
	if len(docs) != 3 {
		t.Fatalf("got %d documents", len(docs))
	}
	for i, d := range docs {
		if d.Index != i {
			t.Errorf("document %d has index %d", i, d.Index)
		}
	}
	// Keys are pairwise distinct even with identical author/year/title.
	seen := map[string]bool{}
	for _, d := range docs {
		if seen[d.Key] {
			t.Errorf("duplicate key %q", d.Key)
		}
		seen[d.Key] = true
	}
	if !seen["smith2020study"] || !seen["smith2020study-2"] {
		t.Errorf("expected disambiguated smith keys, got %v", seen)
	}
}

func TestIngestDirectoryIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Adams - 2019 - Birds.pdf", "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil).Twice()

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	if _, err := m.IngestDirectory(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	report, err := m.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if report.Loaded != 0 || report.AlreadyPresent != 2 {
		t.Errorf("second run report = %+v, want 0 loaded / 2 already present", report)
	}
	ex.AssertExpectations(t) // no re-extraction on the second run
}

func TestIngestDirectoryResumes(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir,
		"Adams - 2019 - Birds.pdf",
		"Brown - 2021 - Rivers.pdf",
		"Smith - 2020 - A Study.pdf",
	)

	st := newTestStore(t)
	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	// Simulate an interrupted run: only the first file was committed.
	m1 := newManager(t, st, ex, corpus.Options{})
	if _, err := m1.IngestFile(context.Background(), filepath.Join(dir, "Adams - 2019 - Birds.pdf")); err != nil {
		t.Fatal(err)
	}

	// A fresh manager restored from the store completes the rest.
	m2 := newManager(t, st, ex, corpus.Options{})
	if m2.Len() != 1 {
		t.Fatalf("restored corpus has %d documents, want 1", m2.Len())
	}
	report, err := m2.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if report.Loaded != 2 || report.AlreadyPresent != 1 {
		t.Fatalf("resume report = %+v", report)
	}

	// Final state matches a single full run: dense indexes in filename order.
	wantKeys := []string{"adams2019birds", "brown2021rivers", "smith2020study"}
	docs := m2.Documents()
	for i, d := range docs {
		if d.Index != i || d.Key != wantKeys[i] {
			t.Errorf("doc %d = {index %d, key %q}, want {index %d, key %q}",
				i, d.Index, d.Key, i, wantKeys[i])
		}
	}
}

func TestIngestDirectorySkipsBadFile(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Adams - 2019 - Birds.pdf", "broken.pdf")
	badPath := filepath.Join(dir, "broken.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, badPath).
		Return("", &extract.ExtractionError{Path: badPath, Err: errors.New("malformed xref")})
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	report, err := m.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("batch must not abort on one bad file: %v", err)
	}
	if report.Loaded != 1 || len(report.Skipped) != 1 {
		t.Fatalf("report = %+v, want 1 loaded / 1 skipped", report)
	}
	if report.Skipped[0].Path != badPath {
		t.Errorf("skipped path = %q, want %q", report.Skipped[0].Path, badPath)
	}
	var extErr *extract.ExtractionError
	if !errors.As(report.Skipped[0].Err, &extErr) {
		t.Errorf("skipped error is %T, want *extract.ExtractionError", report.Skipped[0].Err)
	}
}

func TestIngestWritesChunkFiles(t *testing.T) {
	dir := t.TempDir()
	chunksDir := filepath.Join(t.TempDir(), "chunks")
	writePDFs(t, dir, "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("0123456789", nil)

	m := newManager(t, newTestStore(t), ex, corpus.Options{
		ChunksDir:    chunksDir,
		ChunkSize:    4,
		ChunkOverlap: 1,
		WriteChunks:  true,
	})
	if _, err := m.IngestFile(context.Background(), filepath.Join(dir, "Smith - 2020 - A Study.pdf")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(chunksDir)
	if err != nil {
		t.Fatalf("chunks dir missing: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected materialized chunk files after ingest")
	}
}

func TestResetClearsEverything(t *testing.T) {
	dir := t.TempDir()
	chunksDir := filepath.Join(t.TempDir(), "chunks")
	writePDFs(t, dir, "Smith - 2020 - A Study.pdf")

	st := newTestStore(t)
	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text body here", nil)

	opts := corpus.Options{ChunksDir: chunksDir, ChunkSize: 5, ChunkOverlap: 1, WriteChunks: true}
	m := newManager(t, st, ex, opts)
	if _, err := m.IngestFile(context.Background(), filepath.Join(dir, "Smith - 2020 - A Study.pdf")); err != nil {
		t.Fatal(err)
	}

	if err := m.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("in-memory corpus not cleared: %d documents", m.Len())
	}
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load after reset: %v", err)
	}
	if len(snap.Documents) != 0 {
		t.Errorf("store still has %d documents after reset", len(snap.Documents))
	}
	if _, err := os.Stat(chunksDir); !os.IsNotExist(err) {
		t.Error("chunk files not removed by reset")
	}
}

func TestIngestPublishesEvent(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Smith - 2020 - A Study.pdf")
	path := filepath.Join(dir, "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	pub := new(events.MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
		return ev.Type == events.EventDocumentIngested && ev.Key == "smith2020study"
	})).Return(nil).Once()

	m := corpus.NewManager(testLogger(), newTestStore(t), ex, pub, nil, corpus.Options{})
	if _, err := m.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	pub.AssertExpectations(t)
}

func TestGetByKey(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Adams - 2019 - Birds.pdf", "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	if _, err := m.IngestDirectory(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	doc, ok := m.GetByKey("smith2020study")
	if !ok || doc.Index != 1 {
		t.Errorf("GetByKey(smith2020study) = %+v, %v", doc, ok)
	}
	if _, ok := m.GetByKey("nosuchkey"); ok {
		t.Error("unknown key reported found")
	}
}

func TestFailedCommitLeavesMemoryUntouched(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Smith - 2020 - A Study.pdf")
	path := filepath.Join(dir, "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("text", nil)

	st := new(store.MockStore)
	st.On("CommitDocument", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	m := corpus.NewManager(testLogger(), st, ex, events.NewNoop(), nil, corpus.Options{})
	if _, err := m.IngestFile(context.Background(), path); err == nil {
		t.Fatal("expected commit failure to surface")
	}
	// The document only joins the corpus after the durable commit succeeds.
	if m.Len() != 0 || m.Contains(path) {
		t.Errorf("corpus mutated despite failed commit: len=%d", m.Len())
	}
	if m.Revision() != 0 {
		t.Errorf("revision advanced to %d", m.Revision())
	}
}

func TestConcatenatedLayout(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "Adams - 2019 - Birds.pdf", "Smith - 2020 - A Study.pdf")

	ex := new(extract.MockExtractor)
	ex.On("Extract", mock.Anything, mock.Anything).Return("body", nil)

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	if _, err := m.IngestDirectory(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	got := m.Concatenated()
	sep := "\n\n" + strings.Repeat("=", 80) + "\n\n"
	want := "=== PAPER [000]: Adams (2019) — Birds ===\n\nbody" +
		sep +
		"=== PAPER [001]: Smith (2020) — A Study ===\n\nbody"
	if got != want {
		t.Errorf("concatenated corpus:\n%q\nwant:\n%q", got, want)
	}
}

func TestIngestPlainTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Extractor must not be consulted for non-PDF sources.
	ex := new(extract.MockExtractor)

	m := newManager(t, newTestStore(t), ex, corpus.Options{})
	doc, err := m.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != "plain notes" {
		t.Errorf("text = %q", doc.Text)
	}
	ex.AssertExpectations(t)
}
