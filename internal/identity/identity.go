// Package identity generates and validates literature identifiers (LIDs).
//
// The primary format is {year}-{authorSurname}-{titleInitials}-{hash4}:
// human-legible, stable in its prefix for identical metadata, and made
// collision-resistant by a random 4-hex-character suffix. A deterministic
// content-hash fallback (lit-{12 hex}) covers metadata the primary format
// cannot express.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"

	"github.com/litgraph/litgraph/internal/literature"
)

// LID grammar.
var (
	lidPattern      = regexp.MustCompile(`^(\d{4}|unkn)-[a-z]{1,8}-[a-z]{3,6}-[a-f0-9]{4}$`)
	fallbackPattern = regexp.MustCompile(`^lit-[a-f0-9]{12}$`)
	titleYearRE     = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Stop words excluded from title initials.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "are": true, "was": true, "his": true, "her": true,
	"its": true, "can": true, "has": true, "have": true, "not": true,
	"but": true, "all": true, "any": true, "via": true, "using": true,
	"toward": true, "towards": true, "about": true,
}

// Generate produces a LID from resolved metadata. Two calls on identical
// metadata yield different LIDs (random suffix) with identical
// {year}-{surname}-{initials} prefixes. If the primary format cannot be
// built, the deterministic fallback format is returned instead.
func Generate(meta literature.Metadata) string {
	year := yearPart(meta)
	surname := surnamePart(meta.Authors)
	initials := initialsPart(meta.Title)

	lid := fmt.Sprintf("%s-%s-%s-%s", year, surname, initials, randomSuffix())
	if !Valid(lid) {
		return Fallback(meta)
	}
	return lid
}

// Regenerate returns a fresh LID sharing the prefix of a previous one.
// Used by the repository's retry-on-unique-violation path.
func Regenerate(lid string) string {
	if !lidPattern.MatchString(lid) {
		return lid
	}
	idx := strings.LastIndex(lid, "-")
	return lid[:idx+1] + randomSuffix()
}

// Fallback produces the deterministic content-hash form lit-{12 hex} from
// title, year, and up to three author names. Identical input yields an
// identical LID, unlike the primary format.
func Fallback(meta literature.Metadata) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(meta.Title)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(meta.Year))
	for i, a := range meta.Authors {
		if i == 3 {
			break
		}
		b.WriteByte('|')
		b.WriteString(strings.ToLower(a.FullName()))
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return "lit-" + hex.EncodeToString(sum[:6])
}

// Valid reports whether lid matches either LID format.
func Valid(lid string) bool {
	return lidPattern.MatchString(lid) || fallbackPattern.MatchString(lid)
}

// Prefix returns the {year}-{surname}-{initials} part of a primary-format
// LID, or the whole LID for the fallback format.
func Prefix(lid string) string {
	if !lidPattern.MatchString(lid) {
		return lid
	}
	return lid[:strings.LastIndex(lid, "-")]
}

// yearPart is the 4-digit publication year, a 19xx/20xx year found in the
// title, or the literal "unkn".
func yearPart(meta literature.Metadata) string {
	if meta.Year >= 1000 && meta.Year <= 9999 {
		return strconv.Itoa(meta.Year)
	}
	if m := titleYearRE.FindString(meta.Title); m != "" {
		return m
	}
	return "unkn"
}

// surnamePart is the last whitespace-delimited token of the first author's
// name, letters only, lower-cased, truncated to 8 characters.
func surnamePart(authors []literature.Author) string {
	for _, a := range authors {
		if a.IsBlank() {
			continue
		}
		name := a.Last
		if name == "" {
			name = a.First
		}
		fields := strings.Fields(name)
		if len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		cleaned := lowerLetters(name)
		if cleaned == "" {
			continue
		}
		if len(cleaned) > 8 {
			cleaned = cleaned[:8]
		}
		return cleaned
	}
	return "noauthor"
}

// initialsPart builds 3-6 lower-case letters from the first letters of
// meaningful title words.
func initialsPart(title string) string {
	words := titleWords(title)

	var initials []byte
	for _, w := range words {
		if len(w) >= 3 && !stopWords[w] {
			initials = append(initials, w[0])
			if len(initials) == 6 {
				break
			}
		}
	}

	// Too few meaningful words: fall back to initials of all words >= 2 chars
	if len(initials) < 3 {
		initials = initials[:0]
		for _, w := range words {
			if len(w) >= 2 {
				initials = append(initials, w[0])
				if len(initials) == 6 {
					break
				}
			}
		}
	}

	if len(initials) < 3 {
		return "title"
	}
	return string(initials)
}

// titleWords lower-cases the title, strips punctuation and digits, and
// splits into words.
func titleWords(title string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) && r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// lowerLetters keeps ASCII letters only, lower-cased.
func lowerLetters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// randomSuffix returns 4 lower-case hex characters from a cryptographically
// random 2-byte value. 65,536 values per prefix bucket; collisions are
// handled by the repository's retry path, not prevented here.
func randomSuffix() string {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is unrecoverable in practice
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return hex.EncodeToString(buf[:])
}
