package literature

// Metadata completeness weights. The total of all weights is 100.
const (
	qualityTitle    = 25
	qualityAuthors  = 20
	qualityIdent    = 20
	qualityAbstract = 15
	qualityVenue    = 10
	qualityYear     = 5
	qualityKeywords = 5
)

// QualityScore scores an entity's metadata completeness on a 0-100 scale.
// Placeholder titles score the title component as absent.
func QualityScore(meta Metadata, ids IdentifierSet) int {
	score := 0
	if !IsPlaceholderTitle(meta.Title) {
		score += qualityTitle
	}
	if hasNamedAuthor(meta.Authors) {
		score += qualityAuthors
	}
	if ids.HasAuthoritative() || ids.PMID != "" {
		score += qualityIdent
	}
	if len(meta.Abstract) >= 80 {
		score += qualityAbstract
	}
	if meta.Venue != "" {
		score += qualityVenue
	}
	if PlausibleYear(meta.Year) {
		score += qualityYear
	}
	if len(meta.Keywords) > 0 {
		score += qualityKeywords
	}
	return score
}

// hasNamedAuthor reports whether at least one author carries a nonblank name.
func hasNamedAuthor(authors []Author) bool {
	for _, a := range authors {
		if !a.IsBlank() {
			return true
		}
	}
	return false
}
