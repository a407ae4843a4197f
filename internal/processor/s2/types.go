// Package s2 implements the Semantic Scholar Academic Graph adapter: exact
// lookup by DOI or arXiv id, title search as a fallback, and reference-list
// retrieval for citation resolution.
package s2

// S2Paper represents a paper from the Semantic Scholar API.
type S2Paper struct {
	PaperID     string      `json:"paperId"`
	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`
	Title       string      `json:"title"`
	Abstract    string      `json:"abstract,omitempty"`
	Authors     []S2Author  `json:"authors,omitempty"`
	Year        int         `json:"year,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	Fields      []string    `json:"fieldsOfStudy,omitempty"`
	OpenAccess  *OpenAccess `json:"openAccessPdf,omitempty"`
	References  []S2Paper   `json:"references,omitempty"`
}

// ExternalIDs contains various external identifiers for a paper.
type ExternalIDs struct {
	DOI           string `json:"DOI,omitempty"`
	ArXiv         string `json:"ArXiv,omitempty"`
	PubMed        string `json:"PubMed,omitempty"`
	PubMedCentral string `json:"PubMedCentral,omitempty"`
	CorpusID      int    `json:"CorpusId,omitempty"`
}

// S2Author represents an author from the Semantic Scholar API.
type S2Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccess carries the open-access PDF location when one exists.
type OpenAccess struct {
	URL string `json:"url,omitempty"`
}

// SearchResponse is the response from the paper search endpoint.
type SearchResponse struct {
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Data   []S2Paper `json:"data"`
}
