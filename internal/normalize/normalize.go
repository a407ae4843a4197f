package normalize

import (
	"github.com/litgraph/litgraph/internal/literature"
)

// Normalizer canonicalizes raw resolution input into an IdentifierSet plus a
// primary-type tag. It holds no mutable state beyond the injected URL-mapper
// registry and performs no I/O.
type Normalizer struct {
	mappers *MapperRegistry
}

// NewNormalizer creates a Normalizer with the given mapper registry.
// A nil registry gets the defaults.
func NewNormalizer(mappers *MapperRegistry) *Normalizer {
	if mappers == nil {
		mappers = NewMapperRegistry()
	}
	return &Normalizer{mappers: mappers}
}

// Normalize extracts and canonicalizes every identifier present in the raw
// input. URL-bearing input goes through the publisher mapper registry first;
// if no mapper claims the URL, DOI and arXiv patterns are applied to the URL
// text directly. Explicit identifier fields always win over URL-derived ones.
func (n *Normalizer) Normalize(raw literature.RawInput) (literature.IdentifierSet, literature.PrimaryType) {
	ids := literature.IdentifierSet{}

	// Explicit fields first
	if doi := DOI(raw.DOI); doi != "" {
		ids.DOI = doi
	}
	if arxiv, _ := ArxivID(raw.ArxivID); arxiv != "" {
		ids.ArxivID = arxiv
	}
	if pmid := PMID(raw.PMID); pmid != "" {
		ids.PMID = pmid
	}

	// URL-mapping strategy, then regex fallback straight from the URL text
	if raw.URL != "" {
		if mapped, ok := n.mappers.Extract(raw.URL); ok {
			ids = ids.Merge(mapped)
		} else {
			ids = ids.Merge(fromURLText(raw.URL))
		}
		ids.URL = URL(raw.URL)
	}
	if raw.PDFURL != "" {
		if mapped, ok := n.mappers.Extract(raw.PDFURL); ok {
			ids = ids.Merge(mapped)
		} else {
			ids = ids.Merge(fromURLText(raw.PDFURL))
		}
		ids.PDFURL = URL(raw.PDFURL)
	}

	return ids, primaryType(ids)
}

// fromURLText applies the DOI and arXiv regexes directly to URL text.
func fromURLText(rawURL string) literature.IdentifierSet {
	ids := literature.IdentifierSet{}
	if doi := FindDOI(rawURL); doi != "" {
		ids.DOI = doi
	}
	if arxiv := FindArxivID(rawURL); arxiv != "" {
		ids.ArxivID = arxiv
	}
	return ids
}

// primaryType tags which identifier kind should drive resolution.
func primaryType(ids literature.IdentifierSet) literature.PrimaryType {
	switch {
	case ids.DOI != "":
		return literature.PrimaryDOI
	case ids.ArxivID != "":
		return literature.PrimaryArxiv
	case ids.URL != "" || ids.PDFURL != "":
		return literature.PrimaryURL
	default:
		return literature.PrimaryUnknown
	}
}
