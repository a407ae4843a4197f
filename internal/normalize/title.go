package normalize

import (
	"strings"
	"unicode"

	"github.com/litgraph/litgraph/internal/literature"
)

// Title lower-cases a title, removes punctuation, and collapses whitespace.
// The function is idempotent: Title(Title(t)) == Title(t).
func Title(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation becomes a word boundary, not nothing, so
			// "state-of-the-art" and "state of the art" normalize equally.
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleSimilarity computes a character-sequence similarity ratio in [0,1]
// between two titles after normalization: 2*LCS / (len(a)+len(b)).
// Identical normalized titles score 1.0; disjoint titles score near 0.
func TitleSimilarity(a, b string) float64 {
	na, nb := Title(a), Title(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	ra, rb := []rune(na), []rune(nb)
	lcs := longestCommonSubsequence(ra, rb)
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// longestCommonSubsequence computes LCS length with a rolling row.
func longestCommonSubsequence(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// AuthorOverlap computes last-name overlap between two author lists:
// |intersection of lower-cased last names| / min(|a|, |b|).
// Returns 0 when either list is empty.
func AuthorOverlap(a, b []literature.Author) float64 {
	lastsA := lastNameSet(a)
	lastsB := lastNameSet(b)
	if len(lastsA) == 0 || len(lastsB) == 0 {
		return 0
	}

	shared := 0
	for name := range lastsA {
		if lastsB[name] {
			shared++
		}
	}

	smaller := len(lastsA)
	if len(lastsB) < smaller {
		smaller = len(lastsB)
	}
	return float64(shared) / float64(smaller)
}

// lastNameSet collects lower-cased, letters-only last names.
func lastNameSet(authors []literature.Author) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		last := lettersOnly(strings.ToLower(a.Last))
		if last != "" {
			set[last] = true
		}
	}
	return set
}

// lettersOnly strips everything but letters.
func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
