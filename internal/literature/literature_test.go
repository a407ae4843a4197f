package literature

import "testing"

func TestParseAuthor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		first string
		last  string
	}{
		{"standard", "Ashish Vaswani", "Ashish", "Vaswani"},
		{"comma format", "Vaswani, Ashish", "Ashish", "Vaswani"},
		{"single name", "Madonna", "", "Madonna"},
		{"middle name", "Timothy C Yu", "Timothy C", "Yu"},
		{"suffix", "Martin Luther King Jr.", "Martin Luther", "King Jr."},
		{"empty", "", "", ""},
		{"whitespace", "   ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAuthor(tt.input)
			if a.First != tt.first || a.Last != tt.last {
				t.Errorf("ParseAuthor(%q) = (%q, %q), want (%q, %q)",
					tt.input, a.First, a.Last, tt.first, tt.last)
			}
		})
	}
}

func TestParseAuthors_DropsBlanks(t *testing.T) {
	authors := ParseAuthors([]string{"Ashish Vaswani", "", "  ", "Noam Shazeer"})
	if len(authors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors))
	}
	if authors[0].Last != "Vaswani" || authors[1].Last != "Shazeer" {
		t.Errorf("unexpected authors: %+v", authors)
	}
}

func TestIdentifierSet_Merge(t *testing.T) {
	base := IdentifierSet{DOI: "10.1000/a"}
	other := IdentifierSet{DOI: "10.1000/b", ArxivID: "1706.03762", URL: "example.org/p"}

	merged := base.Merge(other)

	if merged.DOI != "10.1000/a" {
		t.Errorf("existing DOI overwritten: %q", merged.DOI)
	}
	if merged.ArxivID != "1706.03762" {
		t.Errorf("arxiv id not filled: %q", merged.ArxivID)
	}
	if merged.URL != "example.org/p" {
		t.Errorf("url not filled: %q", merged.URL)
	}
	// Merge must not mutate the receiver
	if base.ArxivID != "" {
		t.Error("Merge mutated receiver")
	}
}

func TestIdentifierSet_HasAuthoritative(t *testing.T) {
	if (IdentifierSet{URL: "example.org"}).HasAuthoritative() {
		t.Error("URL alone should not be authoritative")
	}
	if !(IdentifierSet{DOI: "10.1/x"}).HasAuthoritative() {
		t.Error("DOI should be authoritative")
	}
	if !(IdentifierSet{ArxivID: "1706.03762"}).HasAuthoritative() {
		t.Error("arXiv id should be authoritative")
	}
}

func TestIsPlaceholderTitle(t *testing.T) {
	placeholders := []string{"", "  ", "Processing...", "Unknown Title", "unknown title", "Untitled"}
	for _, p := range placeholders {
		if !IsPlaceholderTitle(p) {
			t.Errorf("expected %q to be a placeholder title", p)
		}
	}
	if IsPlaceholderTitle("Attention Is All You Need") {
		t.Error("real title flagged as placeholder")
	}
}

func TestPlausibleYear(t *testing.T) {
	for _, y := range []int{1500, 1999, 2017, 2100} {
		if !PlausibleYear(y) {
			t.Errorf("year %d should be plausible", y)
		}
	}
	for _, y := range []int{0, -1, 1499, 2101, 30000} {
		if PlausibleYear(y) {
			t.Errorf("year %d should not be plausible", y)
		}
	}
}

func TestQualityScore(t *testing.T) {
	full := Metadata{
		Title:    "Attention Is All You Need",
		Authors:  []Author{{First: "Ashish", Last: "Vaswani"}},
		Year:     2017,
		Venue:    "NeurIPS",
		Abstract: "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.",
		Keywords: []string{"attention", "transformer"},
	}
	ids := IdentifierSet{DOI: "10.48550/arxiv.1706.03762"}

	if got := QualityScore(full, ids); got != 100 {
		t.Errorf("full metadata should score 100, got %d", got)
	}

	if got := QualityScore(Metadata{}, IdentifierSet{}); got != 0 {
		t.Errorf("empty metadata should score 0, got %d", got)
	}

	// Placeholder title scores the title component as absent
	placeholder := full
	placeholder.Title = TitleProcessing
	if got := QualityScore(placeholder, ids); got != 75 {
		t.Errorf("placeholder title should drop title points, got %d", got)
	}
}
