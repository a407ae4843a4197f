package normalize

import (
	"testing"

	"github.com/litgraph/litgraph/internal/literature"
)

func TestDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", "10.1038/nature14539", "10.1038/nature14539"},
		{"uppercase", "10.1038/NATURE14539", "10.1038/nature14539"},
		{"resolver url", "https://doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"dx resolver", "http://dx.doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"doi prefix", "doi:10.1038/nature14539", "10.1038/nature14539"},
		{"trailing punctuation", "10.1038/nature14539.", "10.1038/nature14539"},
		{"not a doi", "nature14539", ""},
		{"empty", "", ""},
		{"missing suffix", "10.1038/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOI(tt.input); got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestArxivID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		id      string
		version string
	}{
		{"new style", "1706.03762", "1706.03762", ""},
		{"versioned", "1706.03762v5", "1706.03762", "5"},
		{"prefixed", "arXiv:1706.03762", "1706.03762", ""},
		{"five digit", "2301.00001", "2301.00001", ""},
		{"old style", "hep-th/9901001", "hep-th/9901001", ""},
		{"old style versioned", "math.GT/0309136v2", "math.gt/0309136", "2"},
		{"not arxiv", "10.1038/nature14539", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, version := ArxivID(tt.input)
			if id != tt.id || version != tt.version {
				t.Errorf("ArxivID(%q) = (%q, %q), want (%q, %q)",
					tt.input, id, version, tt.id, tt.version)
			}
		})
	}
}

func TestTitle_Idempotent(t *testing.T) {
	titles := []string{
		"ImageNet Classification!",
		"Attention Is All You Need",
		"State-of-the-Art:   a survey?",
		"",
	}
	for _, title := range titles {
		once := Title(title)
		twice := Title(once)
		if once != twice {
			t.Errorf("Title not idempotent for %q: %q != %q", title, once, twice)
		}
	}
}

func TestTitle_CaseAndPunctuationInvariant(t *testing.T) {
	if Title("ImageNet Classification!") != Title("imagenet   classification") {
		t.Error("case/punctuation/whitespace variants should normalize identically")
	}
	if Title("State-of-the-art") != Title("state of the art") {
		t.Error("hyphenation variants should normalize identically")
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("Attention Is All You Need", "attention is all you need"); got != 1.0 {
		t.Errorf("identical titles should score 1.0, got %f", got)
	}
	if got := TitleSimilarity("Attention Is All You Need", "Attention is All you Need!"); got < 0.99 {
		t.Errorf("trivially different titles should score ~1.0, got %f", got)
	}
	if got := TitleSimilarity("Attention Is All You Need", "Deep Residual Learning for Image Recognition"); got >= 0.8 {
		t.Errorf("unrelated titles should score below threshold, got %f", got)
	}
	if got := TitleSimilarity("", "anything"); got != 0 {
		t.Errorf("empty title should score 0, got %f", got)
	}
}

func TestAuthorOverlap(t *testing.T) {
	vaswani := []literature.Author{
		{First: "Ashish", Last: "Vaswani"},
		{First: "Noam", Last: "Shazeer"},
		{First: "Niki", Last: "Parmar"},
	}
	// Transposed name order parses to the same last names
	transposed := []literature.Author{
		literature.ParseAuthor("Vaswani, Ashish"),
		literature.ParseAuthor("Shazeer, Noam"),
	}

	if got := AuthorOverlap(vaswani, transposed); got != 1.0 {
		t.Errorf("full overlap over smaller set should be 1.0, got %f", got)
	}

	other := []literature.Author{{First: "Kaiming", Last: "He"}, {First: "Xiangyu", Last: "Zhang"}}
	if got := AuthorOverlap(vaswani, other); got != 0 {
		t.Errorf("disjoint author sets should score 0, got %f", got)
	}

	if got := AuthorOverlap(nil, vaswani); got != 0 {
		t.Errorf("empty list should score 0, got %f", got)
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips protocol and slash", "https://arxiv.org/abs/1706.03762/", "arxiv.org/abs/1706.03762"},
		{"strips www", "http://www.nature.com/articles/nature14539", "nature.com/articles/nature14539"},
		{"strips tracking params", "https://example.org/paper?utm_source=x&utm_medium=y&fbclid=z", "example.org/paper"},
		{"keeps meaningful params", "https://example.org/lookup?id=42&utm_source=x", "example.org/lookup?id=42"},
		{"lower-cases", "HTTPS://ArXiv.ORG/ABS/1706.03762", "arxiv.org/abs/1706.03762"},
		{"bare host", "example.org", "example.org"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URL(tt.input); got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizer_ArxivURL(t *testing.T) {
	n := NewNormalizer(nil)

	ids, primary := n.Normalize(literature.RawInput{URL: "https://arxiv.org/abs/1706.03762"})

	if ids.ArxivID != "1706.03762" {
		t.Errorf("arxiv_id = %q, want 1706.03762", ids.ArxivID)
	}
	if ids.DOI != "" {
		t.Errorf("expected no DOI, got %q", ids.DOI)
	}
	if primary != literature.PrimaryArxiv {
		t.Errorf("primary = %v, want arxiv", primary)
	}
}

func TestNormalizer_MapperAndFallback(t *testing.T) {
	n := NewNormalizer(nil)

	// doi.org resolver goes through the mapper
	ids, primary := n.Normalize(literature.RawInput{URL: "https://doi.org/10.1145/3292500.3330701"})
	if ids.DOI != "10.1145/3292500.3330701" {
		t.Errorf("DOI = %q", ids.DOI)
	}
	if primary != literature.PrimaryDOI {
		t.Errorf("primary = %v, want doi", primary)
	}

	// Unknown publisher with a DOI in the path falls back to regex extraction
	ids, _ = n.Normalize(literature.RawInput{URL: "https://some-journal.example.org/content/10.1234/abcd.5678"})
	if ids.DOI != "10.1234/abcd.5678" {
		t.Errorf("regex fallback DOI = %q", ids.DOI)
	}

	// Explicit DOI field wins over URL-derived identifiers
	ids, _ = n.Normalize(literature.RawInput{
		DOI: "10.1038/nature14539",
		URL: "https://doi.org/10.9999/other",
	})
	if ids.DOI != "10.1038/nature14539" {
		t.Errorf("explicit DOI should win, got %q", ids.DOI)
	}
}

func TestNormalizer_PubmedAndVersionedPDF(t *testing.T) {
	n := NewNormalizer(nil)

	ids, _ := n.Normalize(literature.RawInput{URL: "https://pubmed.ncbi.nlm.nih.gov/31110254/"})
	if ids.PMID != "31110254" {
		t.Errorf("PMID = %q", ids.PMID)
	}

	ids, _ = n.Normalize(literature.RawInput{PDFURL: "https://arxiv.org/pdf/1706.03762v5"})
	if ids.ArxivID != "1706.03762" {
		t.Errorf("versioned pdf URL should yield bare id, got %q", ids.ArxivID)
	}
	if ids.PDFURL == "" {
		t.Error("normalized pdf_url should be recorded")
	}
}

func TestNormalizer_Unknown(t *testing.T) {
	n := NewNormalizer(nil)
	ids, primary := n.Normalize(literature.RawInput{Title: "Attention Is All You Need"})
	if !ids.IsEmpty() {
		t.Errorf("title-only input should yield no identifiers: %+v", ids)
	}
	if primary != literature.PrimaryUnknown {
		t.Errorf("primary = %v, want unknown", primary)
	}
}
