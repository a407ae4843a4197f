package pubmed

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
	// BaseURL is the NCBI E-utilities base URL.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// RateLimit honors the unauthenticated 3 req/s E-utilities policy.
	RateLimit = 3.0

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPriority: PMID lookups are rare compared to DOI and arXiv,
	// so this source runs late in the waterfall.
	DefaultPriority = 40
)

// Source is the PubMed metadata-source adapter.
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

// New creates the PubMed adapter.
func New(log *zap.Logger, opts ...Option) *Source {
	s := &Source{
		client:   processor.NewClient("pubmed", RateLimit, DefaultTimeout),
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
func (s *Source) Name() string { return "pubmed" }

// Priority implements processor.Processor.
func (s *Source) Priority() int { return s.priority }

// CanHandle reports true only when a PMID is available.
func (s *Source) CanHandle(in processor.Input) bool {
	return in.Identifiers.PMID != ""
}

// Process fetches the article record via efetch and maps it to canonical
// metadata.
func (s *Source) Process(ctx context.Context, in processor.Input) (processor.Result, error) {
	endpoint := fmt.Sprintf("%s/efetch.fcgi?db=pubmed&id=%s&retmode=xml",
		s.baseURL, url.QueryEscape(in.Identifiers.PMID))

	body, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return processor.Failure(s.Name(), err), err
	}

	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		err = fmt.Errorf("decoding efetch response: %w", err)
		return processor.Failure(s.Name(), err), err
	}
	if len(set.Articles) == 0 {
		err = fmt.Errorf("pmid %s: %w", in.Identifiers.PMID, processor.ErrNotFound)
		return processor.Failure(s.Name(), err), err
	}

	res := mapArticle(set.Articles[0])
	s.log.Debug("pubmed lookup finished",
		zap.String("pmid", in.Identifiers.PMID),
		zap.String("title", res.Metadata.Title))
	return res, nil
}

// mapArticle translates a PubMed article record into a processor.Result.
func mapArticle(a article) processor.Result {
	art := a.MedlineCitation.Article

	meta := literature.Metadata{
		Title:       strings.TrimSpace(art.Title),
		Abstract:    strings.TrimSpace(strings.Join(art.Abstract.Text, "\n\n")),
		Venue:       strings.TrimSpace(art.Journal.Title),
		Keywords:    a.MedlineCitation.Keywords,
		ExternalIDs: map[string]string{"pmid": a.MedlineCitation.PMID},
	}
	if y, err := strconv.Atoi(art.Journal.PubDate.Year); err == nil && literature.PlausibleYear(y) {
		meta.Year = y
	}
	for _, au := range art.Authors {
		author := mapAuthor(au)
		if !author.IsBlank() {
			meta.Authors = append(meta.Authors, author)
		}
	}

	ids := literature.IdentifierSet{PMID: normalize.PMID(a.MedlineCitation.PMID)}
	for _, loc := range art.ELocationID {
		if loc.IDType == "doi" && loc.ValidYN != "N" {
			ids.DOI = normalize.DOI(loc.Value)
			break
		}
	}
	if ids.DOI != "" {
		meta.ExternalIDs["doi"] = ids.DOI
	}

	return processor.Result{
		Success:     true,
		Metadata:    &meta,
		Identifiers: ids,
		Source:      "pubmed",
		Confidence:  0.95,
	}
}

func mapAuthor(a articleAuthor) literature.Author {
	if a.Collective != "" {
		return literature.Author{Last: strings.TrimSpace(a.Collective)}
	}
	first := strings.TrimSpace(a.ForeName)
	if first == "" {
		first = strings.TrimSpace(a.Initials)
	}
	return literature.Author{First: first, Last: strings.TrimSpace(a.LastName)}
}
