package normalize

import (
	"regexp"
	"strings"
)

// arXiv identifier patterns. New-style ids are YYMM.NNNNN with an optional
// version suffix; old-style ids are archive[.SC]/YYMMNNN.
var (
	arxivNewPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5})(v\d+)?$`)
	arxivOldPattern = regexp.MustCompile(`^([a-z-]+(?:\.[A-Za-z]{2})?/\d{7})(v\d+)?$`)
	arxivURLPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([a-zA-Z.\-/]*\d{4}[.\d]*(?:v\d+)?)`)
)

// ArxivID canonicalizes an arXiv identifier: the "arxiv:" prefix is stripped
// and the version suffix is removed (the version is reported separately).
// Returns ("", "") if the input is not an arXiv id.
func ArxivID(raw string) (id, version string) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	lower = strings.TrimPrefix(lower, "arxiv:")
	lower = strings.TrimSuffix(lower, ".pdf")

	if m := arxivNewPattern.FindStringSubmatch(lower); m != nil {
		return m[1], strings.TrimPrefix(m[2], "v")
	}
	if m := arxivOldPattern.FindStringSubmatch(lower); m != nil {
		return m[1], strings.TrimPrefix(m[2], "v")
	}
	return "", ""
}

// FindArxivID extracts an arXiv id from an arxiv.org abs/pdf URL, or from a
// bare identifier string. Returns the canonical id without version suffix.
func FindArxivID(text string) string {
	if m := arxivURLPattern.FindStringSubmatch(text); m != nil {
		id, _ := ArxivID(m[1])
		return id
	}
	id, _ := ArxivID(text)
	return id
}

// pmidPattern matches bare PubMed ids (all digits, sane length).
var pmidPattern = regexp.MustCompile(`^\d{1,9}$`)

// PMID canonicalizes a PubMed id, stripping a "pmid:" prefix.
// Returns "" if the remainder is not a plausible PMID.
func PMID(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "pmid:")
	if !pmidPattern.MatchString(s) {
		return ""
	}
	return s
}
