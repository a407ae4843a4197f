package literature

import "time"

// Entity is the canonical literature record stored in the graph. It is
// created once by the resolution pipeline (or found by duplicate detection),
// mutated through identity finalization and hook handlers, and deleted only
// by explicit administrative cleanup of failed entities.
type Entity struct {
	// LID is the canonical literature identifier (see internal/identity).
	LID string `json:"lid"`

	Identifiers IdentifierSet `json:"identifiers"`
	Meta        Metadata      `json:"metadata"`

	// Content location.
	PDFURL        string `json:"pdf_url,omitempty"`
	SourcePageURL string `json:"source_page_url,omitempty"`

	// RawReferences is the parsed reference list attached by the metadata
	// sources, matched lazily by the citation resolver.
	RawReferences []RawReference `json:"raw_references,omitempty"`

	Components ComponentSet `json:"components"`

	// QualityScore is the metadata completeness score (0-100) written by the
	// quality-assessment hook.
	QualityScore int `json:"quality_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OverallStatus derives the user-visible status from component state.
func (e *Entity) OverallStatus() OverallStatus {
	return e.Components.Overall()
}

// IsPlaceholder reports whether the entity is an unfinished placeholder
// rather than a committed record with real metadata.
func (e *Entity) IsPlaceholder() bool {
	return IsPlaceholderTitle(e.Meta.Title)
}

// RawReference is one entry of an entity's parsed reference list, as
// delivered by a metadata source. Identifier fields are normalized but the
// reference itself is unresolved until the citation resolver matches it.
type RawReference struct {
	Index   int      `json:"index"`
	Text    string   `json:"text,omitempty"`
	Title   string   `json:"title,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	ArxivID string   `json:"arxiv_id,omitempty"`
	PMID    string   `json:"pmid,omitempty"`
	PaperID string   `json:"paper_id,omitempty"` // source-specific external id
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
}

// HasExactID reports whether the reference carries any identifier usable for
// an exact match.
func (r RawReference) HasExactID() bool {
	return r.DOI != "" || r.ArxivID != "" || r.PMID != "" || r.PaperID != ""
}
