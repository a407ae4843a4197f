// Package pagemeta implements the last-resort metadata source: it fetches a
// landing page and reads the Highwire Press citation_* meta tags that most
// publisher and repository pages embed.
package pagemeta

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/processor"
)

const (
	// RateLimit keeps page fetches polite across arbitrary hosts.
	RateLimit = 2.0

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPriority runs this source after every structured API.
	DefaultPriority = 90
)

// metaTagRE matches a meta element in either name/content or content/name
// attribute order. Publisher pages are not consistent about it.
var (
	metaNameFirstRE    = regexp.MustCompile(`(?is)<meta\s+[^>]*name\s*=\s*["']([^"']+)["'][^>]*content\s*=\s*["']([^"']*)["'][^>]*>`)
	metaContentFirstRE = regexp.MustCompile(`(?is)<meta\s+[^>]*content\s*=\s*["']([^"']*)["'][^>]*name\s*=\s*["']([^"']+)["'][^>]*>`)
	titleTagRE         = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// Source scrapes citation metadata from the source page itself.
type Source struct {
	client   *processor.Client
	priority int
	log      *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithPriority overrides the default priority.
func WithPriority(p int) Option {
	return func(s *Source) {
		s.priority = p
	}
}

// WithClient overrides the HTTP client (for testing).
func WithClient(c *processor.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// New creates the page-metadata adapter.
func New(log *zap.Logger, opts ...Option) *Source {
	s := &Source{
		client:   processor.NewClient("pagemeta", RateLimit, DefaultTimeout),
		priority: DefaultPriority,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements processor.Processor.
func (s *Source) Name() string { return "pagemeta" }

// Priority implements processor.Processor.
func (s *Source) Priority() int { return s.priority }

// CanHandle reports true when a source page URL is known.
func (s *Source) CanHandle(in processor.Input) bool {
	return in.Identifiers.URL != ""
}

// Process fetches the page and extracts citation_* meta tags.
func (s *Source) Process(ctx context.Context, in processor.Input) (processor.Result, error) {
	pageURL := in.Identifiers.URL
	if !strings.Contains(pageURL, "://") {
		pageURL = "https://" + pageURL
	}

	body, err := s.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return processor.Failure(s.Name(), err), err
	}

	tags := extractMetaTags(string(body))
	res := mapTags(tags, string(body))
	if !res.Success {
		err = fmt.Errorf("no citation metadata on page %s", in.Identifiers.URL)
		return processor.Failure(s.Name(), err), err
	}

	s.log.Debug("page metadata extracted",
		zap.String("url", in.Identifiers.URL),
		zap.Int("tags", len(tags)))
	return res, nil
}

// extractMetaTags collects meta name/content pairs, lowercasing names. The
// first occurrence of a name wins except citation_author, which repeats once
// per author and is accumulated under the same key with a separator.
func extractMetaTags(page string) map[string][]string {
	tags := make(map[string][]string)
	add := func(name, content string) {
		name = strings.ToLower(strings.TrimSpace(name))
		content = strings.TrimSpace(html.UnescapeString(content))
		if name == "" || content == "" {
			return
		}
		tags[name] = append(tags[name], content)
	}
	for _, m := range metaNameFirstRE.FindAllStringSubmatch(page, -1) {
		add(m[1], m[2])
	}
	for _, m := range metaContentFirstRE.FindAllStringSubmatch(page, -1) {
		add(m[2], m[1])
	}
	return tags
}

func first(tags map[string][]string, names ...string) string {
	for _, n := range names {
		if vals := tags[n]; len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// mapTags translates the scraped tags into a processor.Result. A page with
// no usable title yields a failed result; everything else is best-effort.
func mapTags(tags map[string][]string, page string) processor.Result {
	title := first(tags, "citation_title", "dc.title", "og:title")
	if title == "" {
		if m := titleTagRE.FindStringSubmatch(page); m != nil {
			title = strings.TrimSpace(html.UnescapeString(m[1]))
		}
	}
	if title == "" {
		return processor.Result{Source: "pagemeta"}
	}

	meta := literature.Metadata{
		Title:    title,
		Abstract: first(tags, "citation_abstract", "dc.description", "description"),
		Venue:    first(tags, "citation_journal_title", "citation_conference_title"),
		Authors:  literature.ParseAuthors(tags["citation_author"]),
	}
	if date := first(tags, "citation_publication_date", "citation_date", "citation_online_date"); date != "" {
		if y := yearFromDate(date); literature.PlausibleYear(y) {
			meta.Year = y
		}
	}
	for _, kw := range tags["citation_keywords"] {
		for _, part := range strings.Split(kw, ";") {
			if part = strings.TrimSpace(part); part != "" {
				meta.Keywords = append(meta.Keywords, part)
			}
		}
	}

	ids := literature.IdentifierSet{
		DOI:  normalize.DOI(first(tags, "citation_doi", "dc.identifier")),
		PMID: normalize.PMID(first(tags, "citation_pmid")),
	}
	if arxiv, _ := normalize.ArxivID(first(tags, "citation_arxiv_id")); arxiv != "" {
		ids.ArxivID = arxiv
	}
	if pdf := first(tags, "citation_pdf_url"); pdf != "" {
		ids.PDFURL = normalize.URL(pdf)
	}

	// Scraped pages are weak evidence compared to structured APIs.
	return processor.Result{
		Success:     true,
		Metadata:    &meta,
		Identifiers: ids,
		Source:      "pagemeta",
		Confidence:  0.5,
	}
}

// yearFromDate reads the leading year from formats like 2017/06/12 or
// 2017-06-12.
func yearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
