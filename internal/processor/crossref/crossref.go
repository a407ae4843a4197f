package crossref

import (
	"context"
	"fmt"
	"net/url"
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
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// RateLimit follows the Crossref polite-pool guidance.
	RateLimit = 5.0

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultPriority: Crossref is the first source tried when a DOI is
	// known, since DOI lookup is exact.
	DefaultPriority = 10
)

// jatsTagRE strips JATS markup from Crossref abstracts.
var jatsTagRE = regexp.MustCompile(`</?jats:[a-z]+[^>]*>|</?[a-z]+>`)

// Source is the Crossref metadata-source adapter.
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

// New creates the Crossref adapter.
func New(log *zap.Logger, opts ...Option) *Source {
	s := &Source{
		client:   processor.NewClient("crossref", RateLimit, DefaultTimeout),
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
func (s *Source) Name() string { return "crossref" }

// Priority implements processor.Processor.
func (s *Source) Priority() int { return s.priority }

// CanHandle reports true when a DOI is available for exact lookup.
func (s *Source) CanHandle(in processor.Input) bool {
	return in.Identifiers.DOI != ""
}

// Process looks the DOI up in the Crossref works API and translates the
// work record into canonical metadata.
func (s *Source) Process(ctx context.Context, in processor.Input) (processor.Result, error) {
	doi := in.Identifiers.DOI
	endpoint := fmt.Sprintf("%s/works/%s", s.baseURL, url.PathEscape(doi))

	var resp worksResponse
	if err := s.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return processor.Failure(s.Name(), err), err
	}

	res := mapWork(resp.Message)
	s.log.Debug("crossref lookup finished",
		zap.String("doi", doi),
		zap.Int("references", len(res.References)))
	return res, nil
}

// mapWork translates a Crossref work into a processor.Result.
func mapWork(w work) processor.Result {
	meta := literature.Metadata{
		Authors:     mapAuthors(w.Author),
		Year:        w.Issued.Year(),
		Abstract:    cleanAbstract(w.Abstract),
		Keywords:    w.Subject,
		ExternalIDs: map[string]string{},
	}
	if len(w.Title) > 0 {
		meta.Title = strings.TrimSpace(w.Title[0])
	}
	if len(w.ContainerTitle) > 0 {
		meta.Venue = strings.TrimSpace(w.ContainerTitle[0])
	}

	ids := literature.IdentifierSet{DOI: normalize.DOI(w.DOI)}
	if ids.DOI != "" {
		meta.ExternalIDs["doi"] = ids.DOI
	}
	for _, l := range w.Link {
		if strings.Contains(l.ContentType, "pdf") {
			ids.PDFURL = normalize.URL(l.URL)
			break
		}
	}

	return processor.Result{
		Success:     true,
		Metadata:    &meta,
		Identifiers: ids,
		References:  mapReferences(w.Reference),
		Source:      "crossref",
		Confidence:  0.95,
	}
}

func mapAuthors(in []author) []literature.Author {
	authors := make([]literature.Author, 0, len(in))
	for _, a := range in {
		switch {
		case a.Family != "":
			authors = append(authors, literature.Author{First: a.Given, Last: a.Family})
		case a.Name != "":
			authors = append(authors, literature.ParseAuthor(a.Name))
		}
	}
	return authors
}

func mapReferences(in []reference) []literature.RawReference {
	refs := make([]literature.RawReference, 0, len(in))
	for i, r := range in {
		ref := literature.RawReference{
			Index:   i,
			Text:    r.Unstructured,
			Title:   r.ArticleTitle,
			DOI:     normalize.DOI(r.DOI),
			PaperID: r.Key,
		}
		if r.Author != "" {
			ref.Authors = []string{r.Author}
		}
		if y, err := strconv.Atoi(r.Year); err == nil {
			ref.Year = y
		}
		if ref.Text == "" && ref.Title == "" && ref.DOI == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// cleanAbstract strips JATS markup and collapses whitespace.
func cleanAbstract(s string) string {
	s = jatsTagRE.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
