package corpus

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Field is a best-effort metadata value. Filename parsing is lossy, so each
// piece is either present or absent rather than an empty string that callers
// would have to second-guess.
type Field struct {
	Value string
	Valid bool
}

// Some returns a present field.
func Some(v string) Field { return Field{Value: v, Valid: true} }

// None returns an absent field.
func None() Field { return Field{} }

// Or returns the field value, or fallback when the field is absent.
func (f Field) Or(fallback string) string {
	if f.Valid {
		return f.Value
	}
	return fallback
}

// MarshalJSON renders an absent field as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON treats null as absent.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = None()
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// Metadata is parsed from a "Author(s) - Year - Title" style filename.
// Authors is empty when the filename does not follow the convention.
type Metadata struct {
	Authors []string `json:"authors,omitempty"`
	Year    Field    `json:"year"`
	Title   Field    `json:"title"`
}

// Document is one ingested source. Immutable after creation: re-ingesting the
// same path returns the existing document unchanged.
type Document struct {
	Index      int      `json:"index"`
	Key        string   `json:"key"`
	SourcePath string   `json:"source_path"`
	Text       string   `json:"text"`
	Meta       Metadata `json:"metadata"`
}

// Filename returns the base name of the document's source path.
func (d Document) Filename() string {
	return filepath.Base(d.SourcePath)
}

// Header renders the banner line placed above the document text when the
// corpus is concatenated for corpus-wide operations.
func (d Document) Header() string {
	authors := strings.Join(d.Meta.Authors, " and ")
	if authors == "" {
		authors = "unknown"
	}
	return fmt.Sprintf("=== PAPER [%03d]: %s (%s) — %s ===",
		d.Index, authors, d.Meta.Year.Or("unknown"), d.Meta.Title.Or(d.Filename()))
}
