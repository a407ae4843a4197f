package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/processor"
)

const (
	// BaseURL is the Semantic Scholar Academic Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// RateLimit is the unauthenticated request budget.
	RateLimit = 1.0

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPriority: tried after the exact-id sources; S2 covers both
	// lookup and search and is the main supplier of reference lists.
	DefaultPriority = 30

	// paperFields are the fields requested for paper lookups.
	paperFields = "title,abstract,authors,year,venue,externalIds,fieldsOfStudy,openAccessPdf"

	// referenceFields adds the reference list to a lookup.
	referenceFields = paperFields + ",references.title,references.authors,references.year,references.externalIds,references.paperId"

	// titleSearchMax bounds title-search results considered.
	titleSearchMax = 5
)

// Source is the Semantic Scholar metadata-source adapter.
type Source struct {
	client   *processor.Client
	baseURL  string
	apiKey   string
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

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) Option {
	return func(s *Source) {
		s.apiKey = key
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

// New creates the Semantic Scholar adapter.
func New(log *zap.Logger, opts ...Option) *Source {
	s := &Source{
		client:   processor.NewClient("s2", RateLimit, DefaultTimeout),
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
func (s *Source) Name() string { return "s2" }

// Priority implements processor.Processor.
func (s *Source) Priority() int { return s.priority }

// CanHandle reports true when any exact id or a title is available.
func (s *Source) CanHandle(in processor.Input) bool {
	ids := in.Identifiers
	return ids.DOI != "" || ids.ArxivID != "" || ids.PMID != "" ||
		strings.TrimSpace(in.Title) != ""
}

// Process looks the paper up by its strongest identifier, falling back to a
// title search, and translates the S2 record into canonical metadata
// including the parsed reference list.
func (s *Source) Process(ctx context.Context, in processor.Input) (processor.Result, error) {
	var paper S2Paper
	var err error

	if id := apiIdentifier(in.Identifiers); id != "" {
		paper, err = s.lookup(ctx, id)
	} else {
		paper, err = s.search(ctx, in.Title)
	}
	if err != nil {
		return processor.Failure(s.Name(), err), err
	}

	res := mapPaper(paper)
	s.log.Debug("s2 lookup finished",
		zap.String("paper_id", paper.PaperID),
		zap.Int("references", len(res.References)))
	return res, nil
}

// apiIdentifier builds the S2 paper-id path component for the strongest
// available identifier, or "" if only a title is known.
func apiIdentifier(ids literature.IdentifierSet) string {
	switch {
	case ids.DOI != "":
		return "DOI:" + ids.DOI
	case ids.ArxivID != "":
		return "ARXIV:" + ids.ArxivID
	case ids.PMID != "":
		return "PMID:" + ids.PMID
	}
	return ""
}

// getJSON fetches and decodes an API response, attaching the API key when
// one is configured.
func (s *Source) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	headers := map[string]string{"Accept": "application/json"}
	if s.apiKey != "" {
		headers["x-api-key"] = s.apiKey
	}
	body, err := s.client.Get(ctx, endpoint, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (s *Source) lookup(ctx context.Context, id string) (S2Paper, error) {
	endpoint := fmt.Sprintf("%s/paper/%s?fields=%s", s.baseURL, url.PathEscape(id), url.QueryEscape(referenceFields))
	var paper S2Paper
	if err := s.getJSON(ctx, endpoint, &paper); err != nil {
		return S2Paper{}, err
	}
	if paper.PaperID == "" {
		return S2Paper{}, fmt.Errorf("empty paper record for %s", id)
	}
	return paper, nil
}

func (s *Source) search(ctx context.Context, title string) (S2Paper, error) {
	endpoint := fmt.Sprintf("%s/paper/search?query=%s&fields=%s&limit=%d",
		s.baseURL, url.QueryEscape(title), url.QueryEscape(paperFields), titleSearchMax)
	var resp SearchResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return S2Paper{}, err
	}
	for _, p := range resp.Data {
		if normalize.TitleSimilarity(p.Title, title) >= 0.9 {
			return p, nil
		}
	}
	return S2Paper{}, fmt.Errorf("no close title match among %d results", len(resp.Data))
}

// mapPaper translates an S2Paper into a processor.Result.
func mapPaper(p S2Paper) processor.Result {
	meta := literature.Metadata{
		Title:       strings.TrimSpace(p.Title),
		Abstract:    strings.TrimSpace(p.Abstract),
		Year:        p.Year,
		Venue:       strings.TrimSpace(p.Venue),
		Keywords:    p.Fields,
		ExternalIDs: map[string]string{"s2": p.PaperID},
	}
	for _, a := range p.Authors {
		author := literature.ParseAuthor(a.Name)
		if !author.IsBlank() {
			meta.Authors = append(meta.Authors, author)
		}
	}

	ids := literature.IdentifierSet{
		DOI:  normalize.DOI(p.ExternalIDs.DOI),
		PMID: normalize.PMID(p.ExternalIDs.PubMed),
	}
	if arxiv, _ := normalize.ArxivID(p.ExternalIDs.ArXiv); arxiv != "" {
		ids.ArxivID = arxiv
	}
	if p.OpenAccess != nil && p.OpenAccess.URL != "" {
		ids.PDFURL = normalize.URL(p.OpenAccess.URL)
	}
	if ids.DOI != "" {
		meta.ExternalIDs["doi"] = ids.DOI
	}

	return processor.Result{
		Success:     true,
		Metadata:    &meta,
		Identifiers: ids,
		References:  mapReferences(p.References),
		Source:      "s2",
		Confidence:  0.9,
	}
}

// mapReferences translates the S2 reference list into raw references.
func mapReferences(refs []S2Paper) []literature.RawReference {
	out := make([]literature.RawReference, 0, len(refs))
	for i, r := range refs {
		ref := literature.RawReference{
			Index:   i,
			Title:   strings.TrimSpace(r.Title),
			DOI:     normalize.DOI(r.ExternalIDs.DOI),
			PMID:    normalize.PMID(r.ExternalIDs.PubMed),
			PaperID: r.PaperID,
			Year:    r.Year,
		}
		if arxiv, _ := normalize.ArxivID(r.ExternalIDs.ArXiv); arxiv != "" {
			ref.ArxivID = arxiv
		}
		for _, a := range r.Authors {
			if a.Name != "" {
				ref.Authors = append(ref.Authors, a.Name)
			}
		}
		if ref.Title == "" && !ref.HasExactID() {
			continue
		}
		out = append(out, ref)
	}
	return out
}
