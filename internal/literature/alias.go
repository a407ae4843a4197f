package literature

import "time"

// AliasKind names the closed set of alias namespaces. The uniqueness key for
// an alias mapping is (kind, normalized value), system-wide.
type AliasKind string

const (
	AliasDOI        AliasKind = "doi"
	AliasArxiv      AliasKind = "arxiv"
	AliasURL        AliasKind = "url"
	AliasPDFURL     AliasKind = "pdf_url"
	AliasPMID       AliasKind = "pmid"
	AliasSourcePage AliasKind = "source_page"
	AliasTitle      AliasKind = "title"
)

// ValidAliasKind reports whether k is a member of the closed alias-kind set.
func ValidAliasKind(k AliasKind) bool {
	switch k {
	case AliasDOI, AliasArxiv, AliasURL, AliasPDFURL, AliasPMID, AliasSourcePage, AliasTitle:
		return true
	}
	return false
}

// AliasMapping maps one external identifier or URL to exactly one LID.
// Mappings are append-only and first-writer-wins: an alias is never
// reassigned to a different LID automatically.
type AliasMapping struct {
	Kind       AliasKind `json:"kind"`
	Value      string    `json:"value"`
	LID        string    `json:"lid"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
