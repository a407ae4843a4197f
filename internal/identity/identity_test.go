package identity

import (
	"strings"
	"testing"

	"github.com/litgraph/litgraph/internal/literature"
)

var attentionMeta = literature.Metadata{
	Title: "Attention Is All You Need",
	Authors: []literature.Author{
		{First: "Ashish", Last: "Vaswani"},
		{First: "Noam", Last: "Shazeer"},
	},
	Year: 2017,
}

func TestGenerate_Grammar(t *testing.T) {
	tests := []struct {
		name string
		meta literature.Metadata
	}{
		{"full metadata", attentionMeta},
		{"no year", literature.Metadata{
			Title:   "Deep Residual Learning for Image Recognition",
			Authors: []literature.Author{{First: "Kaiming", Last: "He"}},
		}},
		{"year in title", literature.Metadata{
			Title:   "The 1995 outlook on computing",
			Authors: []literature.Author{{Last: "Knuth"}},
		}},
		{"no authors", literature.Metadata{Title: "Attention Is All You Need", Year: 2017}},
		{"long surname truncated", literature.Metadata{
			Title:   "Some Sufficiently Long Paper Title",
			Authors: []literature.Author{{Last: "Wolkenhauer-Schmidtberger"}},
			Year:    2020,
		}},
		{"short title", literature.Metadata{
			Title:   "On AI",
			Authors: []literature.Author{{Last: "Turing"}},
			Year:    1950,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lid := Generate(tt.meta)
			if !Valid(lid) {
				t.Errorf("Generate() = %q does not satisfy the LID grammar", lid)
			}
		})
	}
}

func TestGenerate_StablePrefixRandomSuffix(t *testing.T) {
	a := Generate(attentionMeta)
	b := Generate(attentionMeta)

	if a == b {
		t.Errorf("two generations should differ in suffix: %q == %q", a, b)
	}
	if Prefix(a) != Prefix(b) {
		t.Errorf("identical metadata should yield identical prefixes: %q vs %q", Prefix(a), Prefix(b))
	}
	if Prefix(a) != "2017-vaswani-ayn" {
		t.Errorf("unexpected prefix %q", Prefix(a))
	}
}

func TestGenerate_Parts(t *testing.T) {
	lid := Generate(attentionMeta)
	parts := strings.Split(lid, "-")
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %q", lid)
	}
	if parts[0] != "2017" {
		t.Errorf("year part = %q, want 2017", parts[0])
	}
	if parts[1] != "vaswani" {
		t.Errorf("surname part = %q, want vaswani", parts[1])
	}
	// "attention is all you need": meaningful words (>=3 chars, no stop
	// words) are attention, you, need → too few letters is not the case:
	// attention(a), you(y), need(n) → "ayn"
	if parts[2] != "ayn" {
		t.Errorf("initials part = %q, want ayn", parts[2])
	}
}

func TestGenerate_YearFromTitle(t *testing.T) {
	meta := literature.Metadata{
		Title:   "The 1995 outlook on distributed computing",
		Authors: []literature.Author{{Last: "Lamport"}},
	}
	lid := Generate(meta)
	if !strings.HasPrefix(lid, "1995-") {
		t.Errorf("year should be derived from title, got %q", lid)
	}
}

func TestGenerate_UnknownYearAndNoAuthor(t *testing.T) {
	meta := literature.Metadata{Title: "Considerations on computing machinery"}
	lid := Generate(meta)
	if !strings.HasPrefix(lid, "unkn-noauthor-") {
		t.Errorf("expected unkn-noauthor prefix, got %q", lid)
	}
	if !Valid(lid) {
		t.Errorf("%q does not satisfy the grammar", lid)
	}
}

func TestFallback_Deterministic(t *testing.T) {
	a := Fallback(attentionMeta)
	b := Fallback(attentionMeta)
	if a != b {
		t.Errorf("fallback must be deterministic: %q != %q", a, b)
	}
	if !Valid(a) {
		t.Errorf("fallback %q does not satisfy the grammar", a)
	}
	if !strings.HasPrefix(a, "lit-") || len(a) != 16 {
		t.Errorf("fallback format wrong: %q", a)
	}

	other := attentionMeta
	other.Year = 2018
	if Fallback(other) == a {
		t.Error("different metadata should hash differently")
	}
}

func TestGenerate_UnrepresentableFallsBack(t *testing.T) {
	// A title with no ASCII letters cannot produce initials or a surname in
	// the primary format's alphabet.
	meta := literature.Metadata{
		Title:   "注意力就是一切",
		Authors: []literature.Author{{Last: "王"}},
		Year:    2017,
	}
	lid := Generate(meta)
	if !Valid(lid) {
		t.Fatalf("%q does not satisfy either grammar", lid)
	}
	if !strings.HasPrefix(lid, "lit-") {
		t.Errorf("unrepresentable metadata should use the fallback form, got %q", lid)
	}
}

func TestRegenerate(t *testing.T) {
	lid := Generate(attentionMeta)
	again := Regenerate(lid)
	if again == lid {
		t.Error("Regenerate should draw a fresh suffix")
	}
	if Prefix(again) != Prefix(lid) {
		t.Error("Regenerate must keep the prefix")
	}
	if !Valid(again) {
		t.Errorf("%q does not satisfy the grammar", again)
	}

	// Fallback-format LIDs pass through unchanged
	fb := Fallback(attentionMeta)
	if Regenerate(fb) != fb {
		t.Error("fallback LIDs are deterministic and must not be regenerated")
	}
}

func TestValid(t *testing.T) {
	valid := []string{
		"2017-vaswani-ayn-0f3a",
		"unkn-noauthor-title-abcd",
		"1995-he-drli-0000",
		"lit-0123456789ab",
	}
	for _, lid := range valid {
		if !Valid(lid) {
			t.Errorf("%q should be valid", lid)
		}
	}

	invalid := []string{
		"",
		"2017-vaswani-ayn",           // missing suffix
		"2017-Vaswani-ayn-0f3a",      // uppercase
		"201-vaswani-ayn-0f3a",       // short year
		"2017-vaswani-ay-0f3a",       // initials too short
		"2017-vaswani-aynxyzq-0f3a",  // initials too long
		"2017-vaswanivery-ayn-0f3a",  // surname too long
		"2017-vaswani-ayn-0f3",       // short hash
		"lit-0123456789",             // short fallback hash
		"lit-0123456789abcd",         // long fallback hash
		"2017-vaswani-ayn-0f3a-extra",
	}
	for _, lid := range invalid {
		if Valid(lid) {
			t.Errorf("%q should be invalid", lid)
		}
	}
}
