package corpus

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Filenames following the Zotero export convention parse into metadata:
//
//	Cook et al. - 2013 - Quantifying the consensus.pdf
//	Smith - 2020 - A Study.pdf
//	Author1 und Author2 - 2021 - Title.pdf
//
// Anything else degrades to a key built from placeholder tokens.

var (
	conventionRe  = regexp.MustCompile(`^(.+?)\s+-\s+(\d{4})\s+-\s+(.+)$`)
	authorSplitRe = regexp.MustCompile(`\s+et\s+al\.?|,|\s+und\s+|\s+and\s+`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]`)
	wordSplitRe   = regexp.MustCompile(`\W+`)
)

// titleStopwords are skipped when picking the key's title token.
var titleStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "and": {}, "or": {}, "but": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "with": {},
}

// ParseFilename extracts best-effort metadata from a source filename.
func ParseFilename(filename string) Metadata {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	m := conventionRe.FindStringSubmatch(stem)
	if m == nil {
		return Metadata{Year: None(), Title: None()}
	}

	var authors []string
	for _, a := range authorSplitRe.Split(m[1], -1) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return Metadata{
		Authors: authors,
		Year:    Some(m[2]),
		Title:   Some(strings.TrimSpace(m[3])),
	}
}

// GenerateKey derives a stable identifier of the form
// <firstauthorsurname><year><firstmeaningfultitleword> from a filename.
// Missing pieces fall back to placeholder tokens; collisions with keys
// already in taken get a numeric -2, -3, ... suffix. Pure function, never
// fails.
func GenerateKey(filename string, taken map[string]struct{}) (string, Metadata) {
	meta := ParseFilename(filename)

	surname := "unknown"
	if len(meta.Authors) > 0 {
		words := strings.Fields(meta.Authors[0])
		if len(words) > 0 {
			surname = nonAlnumRe.ReplaceAllString(strings.ToLower(words[len(words)-1]), "")
		}
	}
	if surname == "" {
		surname = "unknown"
	}

	year := meta.Year.Or("unknown")

	// A filename outside the convention still contributes its stem to the
	// key, which keeps keys distinguishable across scanner-named files.
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	titleWord := firstMeaningfulWord(meta.Title.Or(stem))

	key := surname + year + titleWord
	if _, exists := taken[key]; exists {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", key, n)
			if _, exists := taken[candidate]; !exists {
				key = candidate
				break
			}
		}
	}
	return key, meta
}

// firstMeaningfulWord picks the first title word longer than three characters
// that is not a stopword, falling back to the first word, then to "paper".
func firstMeaningfulWord(title string) string {
	var words []string
	for _, w := range wordSplitRe.Split(strings.ToLower(title), -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return "paper"
	}
	for _, w := range words {
		if _, stop := titleStopwords[w]; stop || len(w) <= 3 {
			continue
		}
		if clean := nonAlnumRe.ReplaceAllString(w, ""); clean != "" {
			return clean
		}
	}
	if clean := nonAlnumRe.ReplaceAllString(words[0], ""); clean != "" {
		return clean
	}
	return "paper"
}
