// Package arxiv implements the arXiv metadata adapter over the Atom query
// API: exact lookup by arXiv id, title search as a fallback.
package arxiv

import "encoding/xml"

// feed is the Atom response of the arXiv query API.
type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

// entry is one paper in the Atom feed.
type entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Summary    string     `xml:"summary"`
	Published  string     `xml:"published"`
	Authors    []author   `xml:"author"`
	DOI        string     `xml:"doi"`
	JournalRef string     `xml:"journal_ref"`
	Links      []link     `xml:"link"`
	Categories []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type category struct {
	Term string `xml:"term,attr"`
}
