package index

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/mock"

	"litcorpus/internal/cache"
	"litcorpus/internal/corpus"
)

func TestStatsCounts(t *testing.T) {
	docs := []corpus.Document{
		doc(0, "a2020x", "glacier glacier glacier retreat", corpus.Metadata{}),
		doc(1, "b2021y", "glacier warming warming", corpus.Metadata{}),
	}
	ix := testIndex(docs...)

	stats, err := ix.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.DocumentCount != 2 {
		t.Errorf("document count = %d", stats.DocumentCount)
	}
	wantChars := len(docs[0].Text) + len(docs[1].Text)
	if stats.TotalChars != wantChars {
		t.Errorf("total chars = %d, want %d", stats.TotalChars, wantChars)
	}
	if len(stats.PerDocument) != 2 || stats.PerDocument[0].Key != "a2020x" {
		t.Errorf("per-document = %+v", stats.PerDocument)
	}

	// glacier:4, warming:2, retreat:1; ties never arise here.
	want := []TermCount{{"glacier", 4}, {"warming", 2}, {"retreat", 1}}
	if len(stats.TopTerms) != len(want) {
		t.Fatalf("top terms = %+v", stats.TopTerms)
	}
	for i, w := range want {
		if stats.TopTerms[i] != w {
			t.Errorf("term %d = %+v, want %+v", i, stats.TopTerms[i], w)
		}
	}
}

func TestStatsTopTermsTieBreak(t *testing.T) {
	ix := New(slog.New(slog.NewTextHandler(io.Discard, nil)),
		&fakeCorpus{docs: []corpus.Document{
			doc(0, "a2020x", "zebra apple zebra apple", corpus.Metadata{}),
		}}, cache.NewNoOpCache(), 20)

	stats, err := ix.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Equal counts order alphabetically.
	if stats.TopTerms[0].Term != "apple" || stats.TopTerms[1].Term != "zebra" {
		t.Errorf("top terms = %+v", stats.TopTerms)
	}
}

func TestStatsTopTermsCapped(t *testing.T) {
	ix := New(slog.New(slog.NewTextHandler(io.Discard, nil)),
		&fakeCorpus{docs: []corpus.Document{
			doc(0, "a2020x", "alpha bravo charlie delta echoes", corpus.Metadata{}),
		}}, cache.NewNoOpCache(), 2)

	stats, err := ix.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.TopTerms) != 2 {
		t.Errorf("got %d top terms, want 2", len(stats.TopTerms))
	}
}

func TestStatsServedFromCache(t *testing.T) {
	cached := Stats{DocumentCount: 42, TotalChars: 9000}
	payload, _ := json.Marshal(cached)

	qc := new(cache.MockCache)
	qc.On("Get", mock.Anything, "stats:rev7:top20").Return(payload, nil).Once()

	fc := &fakeCorpus{revision: 7}
	ix := New(slog.New(slog.NewTextHandler(io.Discard, nil)), fc, qc, 20)

	stats, err := ix.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.DocumentCount != 42 || stats.TotalChars != 9000 {
		t.Errorf("stats = %+v, want cached copy", stats)
	}
	qc.AssertExpectations(t) // no Set on a hit
}

func TestStatsWritesCacheOnMiss(t *testing.T) {
	qc := new(cache.MockCache)
	qc.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
	qc.On("Set", mock.Anything, "stats:rev3:top20", mock.Anything, mock.Anything).
		Return(nil).Once()

	fc := &fakeCorpus{
		docs:     []corpus.Document{doc(0, "a2020x", "glacier", corpus.Metadata{})},
		revision: 3,
	}
	ix := New(slog.New(slog.NewTextHandler(io.Discard, nil)), fc, qc, 20)

	if _, err := ix.Stats(context.Background()); err != nil {
		t.Fatal(err)
	}
	qc.AssertExpectations(t)
}

func TestPeek(t *testing.T) {
	ix := testIndex(
		doc(0, "a2020x", "first body", corpus.Metadata{}),
		doc(1, "b2021y", "second body", corpus.Metadata{}),
	)
	full := "first body\n\nsecond body"

	if got := ix.Peek(0, 5); got != "first" {
		t.Errorf("Peek(0,5) = %q", got)
	}
	if got := ix.Peek(-10, len(full)+10); got != full {
		t.Errorf("out-of-range peek = %q", got)
	}
	if got := ix.Peek(8, 3); got != "" {
		t.Errorf("inverted peek = %q", got)
	}
}

func TestPeekRuneBoundaries(t *testing.T) {
	// Two-byte runes: α=0-1, β=2-3, γ=4-5.
	ix := testIndex(doc(0, "a2020x", "αβγ", corpus.Metadata{}))

	got := ix.Peek(1, 5)
	if !utf8.ValidString(got) {
		t.Fatalf("peek emitted invalid UTF-8: %q", got)
	}
	// Both bounds land mid-rune; the partial runes are dropped.
	if got != "β" {
		t.Errorf("peek = %q, want %q", got, "β")
	}
}
