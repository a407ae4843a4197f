// Package export renders literature entities in citation formats.
package export

import (
	"fmt"
	"strings"

	"github.com/litgraph/litgraph/internal/literature"
)

// ToBibTeX converts an entity to a BibTeX entry keyed by its LID.
func ToBibTeX(e literature.Entity) string {
	entryType := determineEntryType(e)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, e.LID))

	if len(e.Meta.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(e.Meta.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(e.Meta.Title)))

	if e.Meta.Venue != "" {
		fieldName := "journal"
		if entryType == "inproceedings" {
			fieldName = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(e.Meta.Venue)))
	}

	if e.Meta.Year != 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", e.Meta.Year))
	}

	if e.Identifiers.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", e.Identifiers.DOI))
	}
	if e.Identifiers.ArxivID != "" {
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n", e.Identifiers.ArxivID))
		b.WriteString("  archiveprefix = {arXiv},\n")
	}

	if e.Meta.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(e.Meta.Abstract)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple entities to BibTeX format.
func ToBibTeXList(entities []literature.Entity) string {
	var entries []string
	for _, e := range entities {
		entries = append(entries, ToBibTeX(e))
	}
	return strings.Join(entries, "\n")
}

// determineEntryType returns the BibTeX entry type for an entity.
func determineEntryType(e literature.Entity) string {
	venue := strings.ToLower(e.Meta.Venue)

	// Preprints
	if venue == "" && e.Identifiers.ArxivID != "" {
		return "misc"
	}
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	// Default to article
	return "article"
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors []literature.Author) string {
	var formatted []string
	for _, a := range authors {
		if a.First != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", a.Last, a.First))
		} else {
			formatted = append(formatted, a.Last)
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
