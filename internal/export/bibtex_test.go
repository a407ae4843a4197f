package export

import (
	"strings"
	"testing"

	"github.com/litgraph/litgraph/internal/literature"
)

func sampleEntity() literature.Entity {
	return literature.Entity{
		LID: "2017-vaswani-an-a1b2",
		Identifiers: literature.IdentifierSet{
			DOI:     "10.5555/3295222.3295349",
			ArxivID: "1706.03762",
		},
		Meta: literature.Metadata{
			Title: "Attention Is All You Need",
			Authors: []literature.Author{
				{First: "Ashish", Last: "Vaswani"},
				{First: "Noam", Last: "Shazeer"},
			},
			Year:  2017,
			Venue: "Advances in Neural Information Processing Systems",
		},
	}
}

func TestToBibTeX(t *testing.T) {
	got := ToBibTeX(sampleEntity())

	wants := []string{
		"@article{2017-vaswani-an-a1b2,",
		"author = {Vaswani, Ashish and Shazeer, Noam},",
		"title = {Attention Is All You Need},",
		"journal = {Advances in Neural Information Processing Systems},",
		"year = {2017},",
		"doi = {10.5555/3295222.3295349},",
		"eprint = {1706.03762},",
		"archiveprefix = {arXiv},",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("ToBibTeX output missing %q:\n%s", want, got)
		}
	}
}

func TestDetermineEntryType(t *testing.T) {
	tests := []struct {
		name  string
		venue string
		arxiv string
		want  string
	}{
		{"journal article", "Nature Methods", "", "article"},
		{"proceedings", "Proceedings of NeurIPS 2017", "", "inproceedings"},
		{"workshop", "ICML Workshop on Structured Data", "", "inproceedings"},
		{"arxiv preprint with venue", "arXiv", "1706.03762", "article"},
		{"arxiv preprint without venue", "", "1706.03762", "misc"},
		{"no venue at all", "", "", "article"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := literature.Entity{
				Identifiers: literature.IdentifierSet{ArxivID: tt.arxiv},
				Meta:        literature.Metadata{Venue: tt.venue},
			}
			if got := determineEntryType(e); got != tt.want {
				t.Errorf("determineEntryType(%q) = %q, want %q", tt.venue, got, tt.want)
			}
		})
	}
}

func TestFormatAuthorsLastNameOnly(t *testing.T) {
	got := formatAuthors([]literature.Author{{Last: "Plato"}, {First: "Immanuel", Last: "Kant"}})
	want := "Plato and Kant, Immanuel"
	if got != want {
		t.Errorf("formatAuthors = %q, want %q", got, want)
	}
}

func TestEscapeLatex(t *testing.T) {
	got := escapeLatex("50% of P&G {profits} cost $1_000 #tagged ~here^")
	want := `50\% of P\&G \{profits\} cost \$1\_000 \#tagged \textasciitilde{}here\textasciicircum{}`
	if got != want {
		t.Errorf("escapeLatex = %q, want %q", got, want)
	}
}

func TestToBibTeXList(t *testing.T) {
	e := sampleEntity()
	got := ToBibTeXList([]literature.Entity{e, e})
	if count := strings.Count(got, "@article{"); count != 2 {
		t.Errorf("expected 2 entries, found %d:\n%s", count, got)
	}
}
