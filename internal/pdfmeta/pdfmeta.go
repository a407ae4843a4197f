// Package pdfmeta pulls identifiers out of PDF documents. A resolution
// request that arrives as a bare PDF link has no DOI or arXiv id to key on;
// scanning the first pages of the document usually recovers one.
package pdfmeta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/processor"
)

const (
	// Identifiers and titles sit on the opening pages.
	scanPages = 3

	fetchRPS     = 1.0
	fetchTimeout = 60 * time.Second

	minTitleLen = 20
)

// Extraction is what a scan recovered from a document.
type Extraction struct {
	DOI     string
	ArxivID string
	Title   string
}

// IsEmpty reports whether the scan found nothing usable.
func (e Extraction) IsEmpty() bool {
	return e.DOI == "" && e.ArxivID == "" && e.Title == ""
}

// Extractor downloads and scans PDF documents.
type Extractor struct {
	client *processor.Client
}

// New creates a PDF extractor with its own rate-limited HTTP client.
func New() *Extractor {
	return &Extractor{client: processor.NewClient("pdfmeta", fetchRPS, fetchTimeout)}
}

// ExtractURL downloads a PDF and scans its opening pages.
func (x *Extractor) ExtractURL(ctx context.Context, url string) (Extraction, error) {
	body, err := x.client.Get(ctx, url, map[string]string{"Accept": "application/pdf"})
	if err != nil {
		return Extraction{}, fmt.Errorf("fetching pdf: %w", err)
	}
	return ExtractBytes(body)
}

// ExtractFile scans a PDF on disk.
func ExtractFile(path string) (Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Extraction{}, fmt.Errorf("reading pdf: %w", err)
	}
	return ExtractBytes(data)
}

// ExtractBytes scans an in-memory PDF document.
func ExtractBytes(data []byte) (Extraction, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extraction{}, fmt.Errorf("parsing pdf: %w", err)
	}

	pages := r.NumPage()
	if pages > scanPages {
		pages = scanPages
	}

	var out Extraction
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if out.DOI == "" {
			out.DOI = normalize.FindDOI(text)
		}
		if out.ArxivID == "" {
			out.ArxivID = normalize.FindArxivID(text)
		}
		if i == 1 && out.Title == "" {
			out.Title = firstTitleLine(text)
		}
		if out.DOI != "" && out.ArxivID != "" {
			break
		}
	}
	return out, nil
}

// firstTitleLine picks the first substantial line of page one as a title
// guess, skipping obvious header and footer text.
func firstTitleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= minTitleLen && !isBoilerplate(line) {
			return line
		}
	}
	return ""
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"), strings.Contains(lower, "©"):
		return true
	case strings.Contains(lower, "arxiv:"), strings.Contains(lower, "doi:"):
		return true
	case strings.Contains(lower, "preprint"), strings.Contains(lower, "proceedings of"):
		return true
	}
	return false
}
