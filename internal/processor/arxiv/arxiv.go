package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/processor"
)

const (
	// BaseURL is the arXiv Atom query API.
	BaseURL = "http://export.arxiv.org/api/query"

	// RateLimit stays below the documented 1-request-per-3-seconds burst
	// guidance for sustained use.
	RateLimit = 0.5

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPriority places arXiv right after Crossref: id lookups are
	// exact but preprints carry no venue.
	DefaultPriority = 20

	// titleSearchMax bounds title-search results considered.
	titleSearchMax = 5
)

// Source is the arXiv metadata-source adapter.
type Source struct {
	client   *processor.Client
	baseURL  string
	priority int
	log      *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(s *Source) {
		s.baseURL = u
	}
}

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

// New creates the arXiv adapter.
func New(log *zap.Logger, opts ...Option) *Source {
	s := &Source{
		client:   processor.NewClient("arxiv", RateLimit, DefaultTimeout),
		baseURL:  BaseURL,
		priority: DefaultPriority,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements processor.Processor.
func (s *Source) Name() string { return "arxiv" }

// Priority implements processor.Processor.
func (s *Source) Priority() int { return s.priority }

// CanHandle reports true for an arXiv id (exact lookup) or a bare title
// (search fallback).
func (s *Source) CanHandle(in processor.Input) bool {
	return in.Identifiers.ArxivID != "" || strings.TrimSpace(in.Title) != ""
}

// Process fetches the paper by id when one is known, otherwise runs a title
// search and keeps the best-matching entry.
func (s *Source) Process(ctx context.Context, in processor.Input) (processor.Result, error) {
	var endpoint string
	byID := in.Identifiers.ArxivID != ""
	if byID {
		endpoint = fmt.Sprintf("%s?id_list=%s&max_results=1", s.baseURL, url.QueryEscape(in.Identifiers.ArxivID))
	} else {
		query := fmt.Sprintf(`ti:"%s"`, in.Title)
		endpoint = fmt.Sprintf("%s?search_query=%s&max_results=%d", s.baseURL, url.QueryEscape(query), titleSearchMax)
	}

	body, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return processor.Failure(s.Name(), err), err
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		err = fmt.Errorf("parsing atom feed: %w", err)
		return processor.Failure(s.Name(), err), err
	}

	e, ok := s.pickEntry(f.Entries, in.Title, byID)
	if !ok {
		err := fmt.Errorf("no matching arxiv entry")
		return processor.Failure(s.Name(), err), err
	}

	res := mapEntry(e, byID)
	s.log.Debug("arxiv lookup finished",
		zap.String("arxiv_id", res.Identifiers.ArxivID),
		zap.Bool("by_id", byID))
	return res, nil
}

// pickEntry selects the entry to map. Id lookups take the first entry;
// title searches require a close title match to avoid returning the
// search engine's best guess as truth.
func (s *Source) pickEntry(entries []entry, title string, byID bool) (entry, bool) {
	if len(entries) == 0 {
		return entry{}, false
	}
	if byID {
		// The API answers unknown ids with an entry carrying an error link
		// and no authors; treat that as no result.
		e := entries[0]
		if len(e.Authors) == 0 {
			return entry{}, false
		}
		return e, true
	}
	for _, e := range entries {
		if normalize.TitleSimilarity(e.Title, title) >= 0.9 {
			return e, true
		}
	}
	return entry{}, false
}

// mapEntry translates an Atom entry into a processor.Result.
func mapEntry(e entry, byID bool) processor.Result {
	arxivID := normalize.FindArxivID(e.ID)

	meta := literature.Metadata{
		Title:       collapseSpace(e.Title),
		Abstract:    collapseSpace(e.Summary),
		Venue:       strings.TrimSpace(e.JournalRef),
		ExternalIDs: map[string]string{},
	}
	for _, a := range e.Authors {
		author := literature.ParseAuthor(a.Name)
		if !author.IsBlank() {
			meta.Authors = append(meta.Authors, author)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			meta.Keywords = append(meta.Keywords, c.Term)
		}
	}
	// Published is RFC3339; the leading 4 digits are the year
	if len(e.Published) >= 4 {
		if y, err := strconv.Atoi(e.Published[:4]); err == nil {
			meta.Year = y
		}
	}

	ids := literature.IdentifierSet{
		ArxivID: arxivID,
		DOI:     normalize.DOI(e.DOI),
	}
	if arxivID != "" {
		meta.ExternalIDs["arxiv"] = arxivID
		ids.URL = normalize.URL("https://arxiv.org/abs/" + arxivID)
		ids.PDFURL = normalize.URL("https://arxiv.org/pdf/" + arxivID)
	}

	confidence := 0.9
	if !byID {
		confidence = 0.75
	}

	return processor.Result{
		Success:     true,
		Metadata:    &meta,
		Identifiers: ids,
		Source:      "arxiv",
		Confidence:  confidence,
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
