package processor

import (
	"strings"

	"github.com/litgraph/litgraph/internal/literature"
)

// Scoring constants. A score >= CompleteScore marks a "complete" parse and
// stops the waterfall; any missing required field collapses the score to
// zero because downstream consumers cannot act on the result.
const (
	CompleteScore = 1.0

	baseScore = 0.5

	abstractBonus   = 1.2
	abstractPenalty = 0.85
	venueBonus      = 1.1
	venuePenalty    = 0.9

	// A result carrying a DOI or arXiv id, whether it confirms a known one
	// or discovers a new one, anchors the metadata to an exact record and
	// dominates the optional signals. Without the multiplier a complete
	// parse for an identifier-seeded request could never cross
	// CompleteScore and the early-stop rule would be dead.
	authoritativeMultiplier = 3.0
	noAuthoritativeID       = 0.25

	// substantiveAbstractLen separates real abstracts from snippet noise.
	substantiveAbstractLen = 100
)

// Score computes the parsing score for one adapter result given the
// identifier state before the call. The score is unbounded above.
//
// Required fields: a non-placeholder title, at least one author with a
// nonblank name, and a year in a plausible range. Missing any of them
// zeroes the result.
func Score(res Result, before literature.IdentifierSet) float64 {
	if !res.Success || res.Metadata == nil {
		return 0
	}
	meta := *res.Metadata

	if literature.IsPlaceholderTitle(meta.Title) {
		return 0
	}
	if !hasNamedAuthor(meta.Authors) {
		return 0
	}
	if !literature.PlausibleYear(meta.Year) {
		return 0
	}

	score := baseScore

	if len(strings.TrimSpace(meta.Abstract)) >= substantiveAbstractLen {
		score *= abstractBonus
	} else {
		score *= abstractPenalty
	}

	if strings.TrimSpace(meta.Venue) != "" {
		score *= venueBonus
	} else {
		score *= venuePenalty
	}

	after := before.Merge(res.Identifiers)
	switch {
	case res.Identifiers.HasAuthoritative():
		score *= authoritativeMultiplier
	case after.HasAuthoritative():
		// Known before the call but not echoed back by this source:
		// neither rewarded nor penalized.
	default:
		score *= noAuthoritativeID
	}

	return score
}

func hasNamedAuthor(authors []literature.Author) bool {
	for _, a := range authors {
		if !a.IsBlank() {
			return true
		}
	}
	return false
}
