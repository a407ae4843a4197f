// Package literature defines the core domain types for resolved literature
// records: metadata, identifier sets, entities, citation edges, and aliases.
package literature

import "strings"

// Author represents a paper author with a parsed name.
type Author struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last"`
}

// FullName returns the display form "First Last" (or just the last name).
func (a Author) FullName() string {
	if a.First == "" {
		return a.Last
	}
	return a.First + " " + a.Last
}

// IsBlank reports whether the author carries no usable name at all.
func (a Author) IsBlank() bool {
	return strings.TrimSpace(a.First) == "" && strings.TrimSpace(a.Last) == ""
}

// Common name suffixes to keep with the last name when splitting.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// ParseAuthor splits a free-form author name into an Author.
//
// Supported formats:
//   - "Ashish Vaswani"   → first="Ashish", last="Vaswani"
//   - "Vaswani, Ashish"  → first="Ashish", last="Vaswani"
//   - "Madonna"          → last="Madonna"
//
// Common suffixes (Jr, Sr, II, III, IV, PhD, MD) stay with the last name.
//
// Known limitations: multi-part surnames (von Neumann, van der Waals) split
// incorrectly, and middle names are folded into the first name.
func ParseAuthor(name string) Author {
	name = strings.TrimSpace(name)
	if name == "" {
		return Author{}
	}

	// Comma format: "Last, First"
	if idx := strings.Index(name, ","); idx > 0 {
		return Author{
			Last:  strings.TrimSpace(name[:idx]),
			First: strings.TrimSpace(name[idx+1:]),
		}
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Author{Last: parts[0]}
	}

	// Keep a trailing suffix with the last name
	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		return Author{
			Last:  parts[len(parts)-2] + " " + parts[len(parts)-1],
			First: strings.Join(parts[:len(parts)-2], " "),
		}
	}

	return Author{
		Last:  parts[len(parts)-1],
		First: strings.Join(parts[:len(parts)-1], " "),
	}
}

// ParseAuthors parses a list of free-form author names, dropping blanks.
func ParseAuthors(names []string) []Author {
	authors := make([]Author, 0, len(names))
	for _, n := range names {
		a := ParseAuthor(n)
		if !a.IsBlank() {
			authors = append(authors, a)
		}
	}
	return authors
}

// IdentifierSet holds the canonical external identifiers known for a paper.
// At most one normalized value per identifier kind.
type IdentifierSet struct {
	DOI     string `json:"doi,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty"`
	PMID    string `json:"pmid,omitempty"`
	URL     string `json:"url,omitempty"`
	PDFURL  string `json:"pdf_url,omitempty"`
}

// IsEmpty reports whether no identifier of any kind is present.
func (s IdentifierSet) IsEmpty() bool {
	return s.DOI == "" && s.ArxivID == "" && s.PMID == "" && s.URL == "" && s.PDFURL == ""
}

// HasAuthoritative reports whether the set carries a DOI or an arXiv id,
// the two identifier kinds that unlock exact-lookup processors.
func (s IdentifierSet) HasAuthoritative() bool {
	return s.DOI != "" || s.ArxivID != ""
}

// Merge returns a new set where empty fields of s are filled from other.
// Existing values are never overwritten; each kind keeps one canonical value.
func (s IdentifierSet) Merge(other IdentifierSet) IdentifierSet {
	out := s
	if out.DOI == "" {
		out.DOI = other.DOI
	}
	if out.ArxivID == "" {
		out.ArxivID = other.ArxivID
	}
	if out.PMID == "" {
		out.PMID = other.PMID
	}
	if out.URL == "" {
		out.URL = other.URL
	}
	if out.PDFURL == "" {
		out.PDFURL = other.PDFURL
	}
	return out
}

// PrimaryType tags which identifier kind drove a resolution request.
type PrimaryType string

const (
	PrimaryDOI     PrimaryType = "doi"
	PrimaryArxiv   PrimaryType = "arxiv"
	PrimaryURL     PrimaryType = "url"
	PrimaryUnknown PrimaryType = "unknown"
)

// RawInput is the immutable union of fields a resolution request may carry.
// Exactly one RawInput is produced per request.
type RawInput struct {
	DOI         string   `json:"doi,omitempty"`
	ArxivID     string   `json:"arxiv_id,omitempty"`
	PMID        string   `json:"pmid,omitempty"`
	URL         string   `json:"url,omitempty"`
	PDFURL      string   `json:"pdf_url,omitempty"`
	Title       string   `json:"title,omitempty"`
	AuthorHints []string `json:"author_hints,omitempty"`
}

// IsEmpty reports whether the input carries nothing to resolve.
func (r RawInput) IsEmpty() bool {
	return r.DOI == "" && r.ArxivID == "" && r.PMID == "" &&
		r.URL == "" && r.PDFURL == "" && strings.TrimSpace(r.Title) == ""
}

// Metadata is the canonical metadata shape for a paper. All source adapters
// translate into this type at their boundary; fields are only modified
// through explicit merge operations, never partially overwritten in place.
type Metadata struct {
	Title       string            `json:"title"`
	Authors     []Author          `json:"authors"`
	Year        int               `json:"year,omitempty"`
	Venue       string            `json:"venue,omitempty"`
	Abstract    string            `json:"abstract,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
}

// IsEmpty reports whether the metadata carries no usable content.
func (m Metadata) IsEmpty() bool {
	return strings.TrimSpace(m.Title) == "" && len(m.Authors) == 0 &&
		m.Year == 0 && m.Abstract == "" && m.Venue == ""
}

// Placeholder titles written by the pipeline before (or instead of) real
// metadata. An entity carrying one of these is never a dedup authority.
const (
	TitleProcessing = "Processing..."
	TitleUnknown    = "Unknown Title"
)

// IsPlaceholderTitle reports whether a title marks an unfinished or failed
// resolution rather than real metadata.
func IsPlaceholderTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return true
	}
	switch strings.ToLower(t) {
	case strings.ToLower(TitleProcessing), strings.ToLower(TitleUnknown),
		"untitled", "unknown":
		return true
	}
	return false
}

// PlausibleYear reports whether a year is in the range downstream consumers
// can act on. The lower bound predates modern publishing on purpose so
// historical scans still resolve.
func PlausibleYear(year int) bool {
	return year >= 1500 && year <= 2100
}
