package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"litcorpus/internal/corpus"
	"litcorpus/internal/store"
)

func openStore(t *testing.T, dataDir string) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(dataDir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleDoc(index int, key string) corpus.Document {
	return corpus.Document{
		Index:      index,
		Key:        key,
		SourcePath: "/papers/" + key + ".pdf",
		Text:       "body of " + key,
		Meta: corpus.Metadata{
			Authors: []string{"Smith", "Jones"},
			Year:    corpus.Some("2020"),
			Title:   corpus.Some("A Study"),
		},
	}
}

func TestCommitAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t, dir)
	ctx := context.Background()

	docs := []corpus.Document{
		sampleDoc(0, "smith2020study"),
		sampleDoc(1, "jones2019birds"),
	}
	// Second doc has no recognized year or title.
	docs[1].Meta = corpus.Metadata{Authors: []string{"unknown"}}

	for _, d := range docs {
		if err := st.CommitDocument(ctx, d); err != nil {
			t.Fatalf("commit %s: %v", d.Key, err)
		}
	}

	// Reopen to prove the commits hit disk, not just the connection.
	st.Close()
	st2 := openStore(t, dir)
	snap, err := st2.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Documents) != 2 {
		t.Fatalf("loaded %d documents, want 2", len(snap.Documents))
	}
	for i, want := range docs {
		got := snap.Documents[i]
		if got.Key != want.Key || got.Text != want.Text || got.SourcePath != want.SourcePath {
			t.Errorf("doc %d = %+v, want %+v", i, got, want)
		}
	}
	if got := snap.Documents[1].Meta; got.Year.Valid || got.Title.Valid {
		t.Errorf("absent fields came back valid: %+v", got)
	}
	if got := snap.Documents[0].Meta.Title.Or("?"); got != "A Study" {
		t.Errorf("title = %q", got)
	}
}

func TestCommitDuplicateKeyFails(t *testing.T) {
	st := openStore(t, t.TempDir())
	ctx := context.Background()

	if err := st.CommitDocument(ctx, sampleDoc(0, "smith2020study")); err != nil {
		t.Fatal(err)
	}
	dup := sampleDoc(1, "smith2020study")
	dup.SourcePath = "/papers/other.pdf"
	if err := st.CommitDocument(ctx, dup); err == nil {
		t.Error("expected unique constraint violation for duplicate key")
	}
}

func TestBufferLifecycle(t *testing.T) {
	st := openStore(t, t.TempDir())
	ctx := context.Background()

	first, err := st.AppendBuffer(ctx, "first note")
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.AppendBuffer(ctx, "second note")
	if err != nil {
		t.Fatal(err)
	}
	if second.Seq <= first.Seq {
		t.Errorf("buffer seqs not increasing: %d then %d", first.Seq, second.Seq)
	}
	if first.ID == second.ID {
		t.Error("buffer entries share an ID")
	}

	entries, err := st.ListBuffers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Text != "first note" || entries[1].Text != "second note" {
		t.Fatalf("entries = %+v", entries)
	}

	if err := st.ClearBuffers(ctx); err != nil {
		t.Fatal(err)
	}
	entries, err = st.ListBuffers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries after clear", len(entries))
	}
}

func TestResetLeavesEmptyReusableStore(t *testing.T) {
	st := openStore(t, t.TempDir())
	ctx := context.Background()

	if err := st.CommitDocument(ctx, sampleDoc(0, "smith2020study")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.AppendBuffer(ctx, "a note"); err != nil {
		t.Fatal(err)
	}

	if err := st.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load after reset: %v", err)
	}
	if len(snap.Documents) != 0 || len(snap.Buffers) != 0 {
		t.Errorf("state survived reset: %+v", snap)
	}

	// The store must be usable again without reopening.
	if err := st.CommitDocument(ctx, sampleDoc(0, "fresh2021start")); err != nil {
		t.Errorf("commit after reset: %v", err)
	}
}

func TestLoadReportsSequenceGap(t *testing.T) {
	st := openStore(t, t.TempDir())
	ctx := context.Background()

	if err := st.CommitDocument(ctx, sampleDoc(0, "smith2020study")); err != nil {
		t.Fatal(err)
	}
	// Commit skips seq 1, leaving a hole in the record.
	if err := st.CommitDocument(ctx, sampleDoc(2, "jones2019birds")); err != nil {
		t.Fatal(err)
	}

	_, err := st.Load(ctx)
	var corrupt *store.CorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("err = %v, want *CorruptionError", err)
	}
}

func TestOpenGarbageFileReportsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.db")
	if err := os.WriteFile(path, []byte("this is not a database"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := store.NewSQLite(dir)
	var corrupt *store.CorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("err = %v, want *CorruptionError", err)
	}
	if corrupt.Path != path {
		t.Errorf("corruption path = %q, want %q", corrupt.Path, path)
	}
}

func TestRemoveSQLiteState(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"corpus.db", "corpus.db-wal", "corpus.db-shm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.RemoveSQLiteState(dir); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files left behind: %v", entries)
	}
	// Removing already-absent state is not an error.
	if err := store.RemoveSQLiteState(dir); err != nil {
		t.Errorf("second removal: %v", err)
	}
}
