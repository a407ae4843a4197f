package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/litgraph/litgraph/internal/literature"
)

// Output formatting widths.
const (
	DefaultListLimit = 50

	ListTitleMaxLen   = 60
	DetailTitleMaxLen = 70
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that report status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorsShort formats authors with "et al." past maxCount.
func formatAuthorsShort(authors []literature.Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, a.FullName())
	}
	return strings.Join(names, ", ")
}

// printEntityDetail prints one entity in human-readable form.
func printEntityDetail(e *literature.Entity) {
	outputHuman("%s\n", e.LID)
	outputHuman("  %s\n", truncateString(e.Meta.Title, DetailTitleMaxLen))
	if len(e.Meta.Authors) > 0 {
		outputHuman("  %s", formatAuthorsShort(e.Meta.Authors, 5))
		if e.Meta.Year != 0 {
			outputHuman(" (%d)", e.Meta.Year)
		}
		outputHuman("\n")
	}
	if e.Meta.Venue != "" {
		outputHuman("  venue:   %s\n", e.Meta.Venue)
	}
	if e.Identifiers.DOI != "" {
		outputHuman("  doi:     %s\n", e.Identifiers.DOI)
	}
	if e.Identifiers.ArxivID != "" {
		outputHuman("  arxiv:   %s\n", e.Identifiers.ArxivID)
	}
	if e.Identifiers.PMID != "" {
		outputHuman("  pmid:    %s\n", e.Identifiers.PMID)
	}
	outputHuman("  status:  %s\n", e.Components.Overall())
	outputHuman("  quality: %d\n", e.QualityScore)
	if n := len(e.RawReferences); n > 0 {
		outputHuman("  references: %d\n", n)
	}
}
