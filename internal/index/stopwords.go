package index

// stopwords excluded from claim keywords and term-frequency summaries.
var stopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "they": {}, "have": {},
	"been": {}, "will": {}, "would": {}, "could": {}, "should": {}, "which": {},
	"their": {}, "there": {}, "about": {}, "more": {}, "also": {}, "some": {},
	"when": {}, "than": {}, "these": {}, "those": {}, "where": {}, "while": {},
	"because": {}, "through": {}, "between": {}, "during": {}, "other": {},
	"however": {}, "therefore": {},
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
