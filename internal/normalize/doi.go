// Package normalize extracts and canonicalizes external identifiers (DOI,
// arXiv id, PubMed id, URL) from free-form resolution input, and provides the
// title/author matching utilities shared by the deduplication engine and the
// citation resolver. Everything here is a pure function over its input.
package normalize

import (
	"regexp"
	"strings"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
// More specific: 10.\d{4,9}/[-._;()/:A-Z0-9]+
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPrefixes are stripped before a DOI is stored or compared.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOI lower-cases a DOI and strips resolver-URL and "doi:" prefixes.
// Returns "" if the remainder does not look like a DOI.
func DOI(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			lower = lower[len(p):]
			break
		}
	}
	lower = strings.TrimRight(lower, ".,;:)")
	if !validDOI(lower) {
		return ""
	}
	return lower
}

// FindDOI finds the first valid DOI in arbitrary text.
func FindDOI(text string) string {
	matches := doiPattern.FindAllString(text, -1)
	for _, match := range matches {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if validDOI(match) {
			return strings.ToLower(match)
		}
	}
	return ""
}

// validDOI performs basic validation on a DOI.
func validDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	// Must start with 10. and have something after the /
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}
