package index

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const statsTTL = 10 * time.Minute

// DocStats is the per-document slice of the corpus overview.
type DocStats struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Chars int    `json:"chars"`
}

// TermCount is one entry of the term-frequency summary.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Stats is the corpus overview.
type Stats struct {
	DocumentCount int         `json:"document_count"`
	TotalChars    int         `json:"total_chars"`
	PerDocument   []DocStats  `json:"per_document"`
	TopTerms      []TermCount `json:"top_terms"`
}

var termRe = regexp.MustCompile(`\p{L}+`)

// Stats computes aggregate counts and a top-N term-frequency summary
// (stopwords removed, tokens longer than four characters). Results are
// cached keyed by corpus revision, so a stale entry is simply never asked
// for again after ingestion.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	key := fmt.Sprintf("stats:rev%d:top%d", ix.corpus.Revision(), ix.topTerms)
	if payload, err := ix.cache.Get(ctx, key); err != nil {
		ix.log.Warn("stats cache read failed", "err", err)
	} else if payload != nil {
		var cached Stats
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	}

	stats := Stats{DocumentCount: ix.corpus.Len(), TotalChars: ix.corpus.TotalChars()}
	freq := map[string]int{}
	for _, d := range ix.corpus.Documents() {
		stats.PerDocument = append(stats.PerDocument, DocStats{
			Index: d.Index,
			Key:   d.Key,
			Chars: len(d.Text),
		})
		for _, tok := range termRe.FindAllString(d.Text, -1) {
			tok = strings.ToLower(tok)
			if len(tok) <= 4 || isStopword(tok) {
				continue
			}
			freq[tok]++
		}
	}

	terms := make([]TermCount, 0, len(freq))
	for term, count := range freq {
		terms = append(terms, TermCount{Term: term, Count: count})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > ix.topTerms {
		terms = terms[:ix.topTerms]
	}
	stats.TopTerms = terms

	if payload, err := json.Marshal(stats); err == nil {
		if err := ix.cache.Set(ctx, key, payload, statsTTL); err != nil {
			ix.log.Warn("stats cache write failed", "err", err)
		}
	}
	return stats, nil
}

// Peek returns a slice of the concatenated corpus content, clamped to valid
// bounds and aligned to rune boundaries.
func (ix *Index) Peek(start, end int) string {
	content := ix.corpus.Concatenated()
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	if start >= end {
		return ""
	}
	start, end = alignRunes(content, start, end)
	return content[start:end]
}
