package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"litcorpus/internal/corpus"
	"litcorpus/internal/index"
)

// Handlers serves read-only queries over the corpus.
type Handlers struct {
	log     *slog.Logger
	manager *corpus.Manager
	index   *index.Index
}

// NewHandlers wires the query handlers.
func NewHandlers(log *slog.Logger, m *corpus.Manager, ix *index.Index) *Handlers {
	return &Handlers{log: log, manager: m, index: ix}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		h.log.Warn("healthz write failed", "err", err)
	}
}

type documentSummary struct {
	Index    int      `json:"index"`
	Key      string   `json:"key"`
	Filename string   `json:"filename"`
	Authors  []string `json:"authors,omitempty"`
	Year     string   `json:"year,omitempty"`
	Title    string   `json:"title,omitempty"`
	Chars    int      `json:"chars"`
}

// ListDocuments returns metadata for every document in index order.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := h.manager.Documents()
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentSummary{
			Index:    d.Index,
			Key:      d.Key,
			Filename: d.Filename(),
			Authors:  d.Meta.Authors,
			Year:     d.Meta.Year.Or(""),
			Title:    d.Meta.Title.Or(""),
			Chars:    len(d.Text),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDocument returns one document including its full text.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.docIndex(w, r)
	if !ok {
		return
	}
	doc, found := h.manager.Get(idx)
	if !found {
		fail(h.log, w, "document not found", nil, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// References returns the extracted reference list of one document.
func (h *Handlers) References(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.docIndex(w, r)
	if !ok {
		return
	}
	refs, err := h.index.ExtractReferences(idx)
	if err != nil {
		fail(h.log, w, "document not found", err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_index": idx, "references": refs})
}

// Search answers keyword search over document metadata and text.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		fail(h.log, w, "query parameter q is required", nil, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.index.FindPapers(q))
}

// Grep answers regex search; doc=-1 or omitted scans the whole corpus.
func (h *Handlers) Grep(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		fail(h.log, w, "query parameter pattern is required", nil, http.StatusBadRequest)
		return
	}
	doc := index.AllDocuments
	if v := r.URL.Query().Get("doc"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			fail(h.log, w, "invalid doc parameter", err, http.StatusBadRequest)
			return
		}
		doc = parsed
	}
	max, _ := strconv.Atoi(r.URL.Query().Get("max"))

	matches, err := h.index.Grep(pattern, doc, max)
	if err != nil {
		var patternErr *index.PatternError
		if errors.As(err, &patternErr) {
			fail(h.log, w, patternErr.Error(), err, http.StatusBadRequest)
			return
		}
		fail(h.log, w, "grep failed", err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// Cite returns passages mentioning a reference string.
func (h *Handlers) Cite(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		fail(h.log, w, "query parameter ref is required", nil, http.StatusBadRequest)
		return
	}
	max, _ := strconv.Atoi(r.URL.Query().Get("max"))
	writeJSON(w, http.StatusOK, h.index.Cite(ref, max))
}

// Claim returns passages relevant to a claim.
func (h *Handlers) Claim(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		fail(h.log, w, "query parameter q is required", nil, http.StatusBadRequest)
		return
	}
	max, _ := strconv.Atoi(r.URL.Query().Get("max"))
	writeJSON(w, http.StatusOK, h.index.SearchClaim(q, max))
}

// Stats returns the corpus overview.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.index.Stats(r.Context())
	if err != nil {
		fail(h.log, w, "stats failed", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) docIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		fail(h.log, w, "invalid document index", err, http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}
