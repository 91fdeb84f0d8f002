package corpus

import (
	"reflect"
	"testing"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantAuthors []string
		wantYear    string
		wantTitle   string
	}{
		{
			name:        "single author",
			filename:    "Smith - 2020 - A Study.pdf",
			wantAuthors: []string{"Smith"},
			wantYear:    "2020",
			wantTitle:   "A Study",
		},
		{
			name:        "et al",
			filename:    "Cook et al. - 2013 - Quantifying the consensus.pdf",
			wantAuthors: []string{"Cook"},
			wantYear:    "2013",
			wantTitle:   "Quantifying the consensus",
		},
		{
			name:        "two authors joined with und",
			filename:    "Meier und Schulz - 2021 - Energie und Klima.pdf",
			wantAuthors: []string{"Meier", "Schulz"},
			wantYear:    "2021",
			wantTitle:   "Energie und Klima",
		},
		{
			name:        "comma separated authors",
			filename:    "Smith, Jones - 2019 - Ocean Currents.pdf",
			wantAuthors: []string{"Smith", "Jones"},
			wantYear:    "2019",
			wantTitle:   "Ocean Currents",
		},
		{
			name:     "no convention",
			filename: "random-notes.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseFilename(tt.filename)
			if !reflect.DeepEqual(meta.Authors, tt.wantAuthors) {
				t.Errorf("authors = %v, want %v", meta.Authors, tt.wantAuthors)
			}
			if got := meta.Year.Or(""); got != tt.wantYear {
				t.Errorf("year = %q, want %q", got, tt.wantYear)
			}
			if got := meta.Title.Or(""); got != tt.wantTitle {
				t.Errorf("title = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		taken    []string
		want     string
	}{
		{
			name:     "full convention",
			filename: "Smith - 2020 - A Study.pdf",
			want:     "smith2020study",
		},
		{
			name:     "stopword and short words skipped",
			filename: "Cook et al. - 2013 - On the Role of Data.pdf",
			want:     "cook2013role",
		},
		{
			name:     "no convention falls back to placeholders",
			filename: "scan001.pdf",
			want:     "unknownunknownscan001",
		},
		{
			name:     "title with only short words uses first word",
			filename: "Lee - 2018 - On Ice.pdf",
			want:     "lee2018on",
		},
		{
			name:     "collision gets numeric suffix",
			filename: "Smith - 2020 - A Study (copy).pdf",
			taken:    []string{"smith2020study"},
			want:     "smith2020study-2",
		},
		{
			name:     "second collision increments",
			filename: "Smith - 2020 - A Study (copy 2).pdf",
			taken:    []string{"smith2020study", "smith2020study-2"},
			want:     "smith2020study-3",
		},
		{
			name:     "multi-word author uses surname",
			filename: "Maria van der Berg - 2015 - Coastal Erosion.pdf",
			want:     "berg2015coastal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken := make(map[string]struct{}, len(tt.taken))
			for _, k := range tt.taken {
				taken[k] = struct{}{}
			}
			got, _ := GenerateKey(tt.filename, taken)
			if got != tt.want {
				t.Errorf("GenerateKey(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestGenerateKeyPure(t *testing.T) {
	taken := map[string]struct{}{}
	k1, _ := GenerateKey("Smith - 2020 - A Study.pdf", taken)
	k2, _ := GenerateKey("Smith - 2020 - A Study.pdf", taken)
	if k1 != k2 {
		t.Errorf("same inputs produced different keys: %q vs %q", k1, k2)
	}
	if len(taken) != 0 {
		t.Error("GenerateKey mutated the taken set")
	}
}
