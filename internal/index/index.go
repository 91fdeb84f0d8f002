// Package index is the read-only query surface over the corpus: keyword
// search, citation lookup, claim search, regex grep, reference extraction and
// aggregate statistics. No operation here mutates the corpus.
package index

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"litcorpus/internal/cache"
	"litcorpus/internal/corpus"
)

// Default windows and result caps, carried over from the workflows this
// engine serves: context wide enough to read a passage, caps small enough to
// keep responses skimmable.
const (
	CiteWindow   = 400
	CiteMax      = 10
	ClaimWindow  = 300
	ClaimMax     = 15
	GrepWindow   = 200
	GrepMax      = 20
	MaxRefs      = 50
	AllDocuments = -1
)

// Corpus is the read-only view the index queries. *corpus.Manager satisfies
// it; the interface keeps the no-mutation contract visible in the types.
type Corpus interface {
	Documents() []corpus.Document
	Get(index int) (corpus.Document, bool)
	Len() int
	TotalChars() int
	Revision() int
	Concatenated() string
}

// PatternError reports an invalid regex supplied to grep, naming the pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Index answers queries over the corpus. Stats results are cached keyed by
// corpus revision; everything else is computed fresh.
type Index struct {
	log      *slog.Logger
	corpus   Corpus
	cache    cache.Cache
	topTerms int
}

// New builds an index over c. topTerms bounds the term-frequency summary in
// Stats.
func New(log *slog.Logger, c Corpus, qc cache.Cache, topTerms int) *Index {
	if topTerms <= 0 {
		topTerms = 20
	}
	return &Index{log: log, corpus: c, cache: qc, topTerms: topTerms}
}

// Paper is a metadata summary of one matching document.
type Paper struct {
	Index    int      `json:"index"`
	Key      string   `json:"key"`
	Authors  []string `json:"authors,omitempty"`
	Year     string   `json:"year,omitempty"`
	Title    string   `json:"title,omitempty"`
	Filename string   `json:"filename"`
}

func paperOf(d corpus.Document) Paper {
	return Paper{
		Index:    d.Index,
		Key:      d.Key,
		Authors:  d.Meta.Authors,
		Year:     d.Meta.Year.Or(""),
		Title:    d.Meta.Title.Or(""),
		Filename: d.Filename(),
	}
}

// FindPapers returns documents whose metadata contains keyword
// (case-insensitive); a document with no metadata match falls back to a full
// text containment check. Results come back in index order.
func (ix *Index) FindPapers(keyword string) []Paper {
	kw := strings.ToLower(keyword)
	var out []Paper
	for _, d := range ix.corpus.Documents() {
		searchable := strings.ToLower(strings.Join([]string{
			d.Filename(),
			strings.Join(d.Meta.Authors, " "),
			d.Meta.Year.Or(""),
			d.Meta.Title.Or(""),
			d.Key,
		}, " "))
		if strings.Contains(searchable, kw) || strings.Contains(strings.ToLower(d.Text), kw) {
			out = append(out, paperOf(d))
		}
	}
	return out
}

// Citation is one passage mentioning a reference.
type Citation struct {
	DocIndex int    `json:"doc_index"`
	Key      string `json:"key"`
	Match    string `json:"match"`
	Pos      int    `json:"pos"`
	Context  string `json:"context"`
}

// Cite locates passages that mention a reference such as "Rockström 2009" or
// "Cook et al., 2013". All significant tokens of the query must appear within
// 50 characters of each other, in order, case-insensitively.
func (ix *Index) Cite(authorYear string, maxMatches int) []Citation {
	if maxMatches <= 0 {
		maxMatches = CiteMax
	}
	var parts []string
	for _, p := range regexp.MustCompile(`[\s,]+`).Split(strings.TrimSpace(authorYear), -1) {
		if p != "" {
			parts = append(parts, regexp.QuoteMeta(p))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	re := regexp.MustCompile(`(?is)` + strings.Join(parts, `.{0,50}`))

	var out []Citation
	for _, d := range ix.corpus.Documents() {
		for _, loc := range re.FindAllStringIndex(d.Text, -1) {
			out = append(out, Citation{
				DocIndex: d.Index,
				Key:      d.Key,
				Match:    d.Text[loc[0]:loc[1]],
				Pos:      loc[0],
				Context:  window(d.Text, loc[0], loc[1], CiteWindow),
			})
			if len(out) >= maxMatches {
				return out
			}
		}
	}
	return out
}

// ClaimHit is one passage relevant to a claim.
type ClaimHit struct {
	DocIndex int      `json:"doc_index"`
	Key      string   `json:"key"`
	Keywords []string `json:"keywords"`
	Score    int      `json:"score"`
	Pos      int      `json:"pos"`
	Context  string   `json:"context"`
}

// SearchClaim finds passages whose local context contains a high overlap of
// the claim's significant keywords. Score is the count of distinct keywords
// inside the context window; ties break by document index, then position.
// Purely lexical, grounded only in corpus text.
func (ix *Index) SearchClaim(claim string, maxMatches int) []ClaimHit {
	if maxMatches <= 0 {
		maxMatches = ClaimMax
	}
	keywords := claimKeywords(claim)
	if len(keywords) == 0 {
		return nil
	}
	alt := make([]string, len(keywords))
	for i, k := range keywords {
		alt[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(`(?i)` + strings.Join(alt, "|"))

	var hits []ClaimHit
	for _, d := range ix.corpus.Documents() {
		for _, loc := range re.FindAllStringIndex(d.Text, -1) {
			ctxText := window(d.Text, loc[0], loc[1], ClaimWindow)
			lower := strings.ToLower(ctxText)
			var present []string
			for _, k := range keywords {
				if strings.Contains(lower, k) {
					present = append(present, k)
				}
			}
			hits = append(hits, ClaimHit{
				DocIndex: d.Index,
				Key:      d.Key,
				Keywords: present,
				Score:    len(present),
				Pos:      loc[0],
				Context:  ctxText,
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocIndex != hits[j].DocIndex {
			return hits[i].DocIndex < hits[j].DocIndex
		}
		return hits[i].Pos < hits[j].Pos
	})
	if len(hits) > maxMatches {
		hits = hits[:maxMatches]
	}
	return hits
}

// claimKeywords extracts significant tokens: longer than four characters,
// not a stopword, lowercased, first six kept.
func claimKeywords(claim string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, w := range regexp.MustCompile(`\w+`).FindAllString(claim, -1) {
		w = strings.ToLower(w)
		if len(w) <= 4 || isStopword(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == 6 {
			break
		}
	}
	return out
}

// GrepMatch is one regex match with surrounding context.
type GrepMatch struct {
	DocIndex int    `json:"doc_index"`
	Key      string `json:"key"`
	Match    string `json:"match"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Context  string `json:"context"`
}

// Grep runs a regex over one document (or the whole corpus with
// AllDocuments) and returns up to maxMatches matches with context. An
// invalid pattern fails with *PatternError; the corpus is untouched.
func (ix *Index) Grep(pattern string, docIndex, maxMatches int) ([]GrepMatch, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	if maxMatches <= 0 {
		maxMatches = GrepMax
	}
	docs, err := ix.scope(docIndex)
	if err != nil {
		return nil, err
	}

	var out []GrepMatch
	for _, d := range docs {
		for _, loc := range re.FindAllStringIndex(d.Text, -1) {
			out = append(out, GrepMatch{
				DocIndex: d.Index,
				Key:      d.Key,
				Match:    d.Text[loc[0]:loc[1]],
				Start:    loc[0],
				End:      loc[1],
				Context:  window(d.Text, loc[0], loc[1], GrepWindow),
			})
			if len(out) >= maxMatches {
				return out, nil
			}
		}
	}
	return out, nil
}

// GrepCount counts pattern occurrences in the chosen scope.
func (ix *Index) GrepCount(pattern string, docIndex int) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, &PatternError{Pattern: pattern, Err: err}
	}
	docs, err := ix.scope(docIndex)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, d := range docs {
		count += len(re.FindAllStringIndex(d.Text, -1))
	}
	return count, nil
}

func (ix *Index) scope(docIndex int) ([]corpus.Document, error) {
	if docIndex == AllDocuments {
		return ix.corpus.Documents(), nil
	}
	d, ok := ix.corpus.Get(docIndex)
	if !ok {
		return nil, fmt.Errorf("document index %d out of range (0-%d)", docIndex, ix.corpus.Len()-1)
	}
	return []corpus.Document{d}, nil
}

var (
	refsHeadingRe = regexp.MustCompile(`(?i)\n(?:References|Bibliography|Literature Cited|Works Cited)\s*\n`)
	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// ExtractReferences locates a references-list region in one document and
// splits it into entries: lines longer than twenty characters that carry a
// year. No heading means no region; that returns an empty list, not an
// error.
func (ix *Index) ExtractReferences(docIndex int) ([]string, error) {
	d, ok := ix.corpus.Get(docIndex)
	if !ok {
		return nil, fmt.Errorf("document index %d out of range (0-%d)", docIndex, ix.corpus.Len()-1)
	}
	loc := refsHeadingRe.FindStringIndex(d.Text)
	if loc == nil {
		return []string{}, nil
	}
	refs := []string{}
	for _, line := range strings.Split(d.Text[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && yearRe.MatchString(line) {
			refs = append(refs, line)
			if len(refs) == MaxRefs {
				break
			}
		}
	}
	return refs, nil
}

// window clamps a [start,end) match to a surrounding context slice, aligned
// to rune boundaries so a snippet is always valid UTF-8.
func window(text string, start, end, width int) string {
	s := start - width
	if s < 0 {
		s = 0
	}
	e := end + width
	if e > len(text) {
		e = len(text)
	}
	s, e = alignRunes(text, s, e)
	return text[s:e]
}

// alignRunes nudges byte offsets onto rune boundaries: the start forward and
// the end backward, dropping any partially covered rune.
func alignRunes(text string, s, e int) (int, int) {
	for s < e && !utf8.RuneStart(text[s]) {
		s++
	}
	for e > s && e < len(text) && !utf8.RuneStart(text[e]) {
		e--
	}
	return s, e
}
