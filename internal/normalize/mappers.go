package normalize

import (
	"net/url"
	"strings"

	"github.com/litgraph/litgraph/internal/literature"
)

// Mapper extracts identifiers from one publisher's URL patterns.
type Mapper struct {
	// Name identifies the mapper in logs.
	Name string

	// Hosts are the host suffixes this mapper claims (without "www.").
	Hosts []string

	// Extract pulls identifiers out of a matched URL. Returning an empty set
	// means the URL matched the host but carried nothing extractable.
	Extract func(u *url.URL) literature.IdentifierSet
}

// MapperRegistry holds the registered publisher URL mappers. It is built
// explicitly at startup and injected where needed; there is no process-wide
// registry.
type MapperRegistry struct {
	mappers []Mapper
}

// NewMapperRegistry returns a registry preloaded with the default publisher
// mappers. Additional mappers can be registered before first use.
func NewMapperRegistry() *MapperRegistry {
	r := &MapperRegistry{}
	r.Register(arxivMapper())
	r.Register(doiResolverMapper())
	r.Register(pubmedMapper())
	r.Register(doiInPathMapper("biorxiv", "biorxiv.org", "medrxiv.org"))
	r.Register(doiInPathMapper("acm", "dl.acm.org"))
	r.Register(doiInPathMapper("wiley", "onlinelibrary.wiley.com"))
	r.Register(doiInPathMapper("springer", "link.springer.com"))
	r.Register(doiInPathMapper("plos", "journals.plos.org"))
	return r
}

// Register appends a mapper. Mappers are consulted in registration order.
func (r *MapperRegistry) Register(m Mapper) {
	r.mappers = append(r.mappers, m)
}

// Extract runs the first host-matching mapper over the URL and returns the
// identifiers it found. ok is false when no mapper claims the host or the
// claiming mapper extracted nothing.
func (r *MapperRegistry) Extract(rawURL string) (literature.IdentifierSet, bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return literature.IdentifierSet{}, false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return literature.IdentifierSet{}, false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, m := range r.mappers {
		if !m.matchesHost(host) {
			continue
		}
		ids := m.Extract(u)
		if ids.IsEmpty() {
			return literature.IdentifierSet{}, false
		}
		return ids, true
	}
	return literature.IdentifierSet{}, false
}

func (m Mapper) matchesHost(host string) bool {
	for _, h := range m.Hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// arxivMapper extracts arXiv ids from abs/pdf URLs.
func arxivMapper() Mapper {
	return Mapper{
		Name:  "arxiv",
		Hosts: []string{"arxiv.org"},
		Extract: func(u *url.URL) literature.IdentifierSet {
			path := strings.TrimPrefix(u.Path, "/")
			var rest string
			switch {
			case strings.HasPrefix(path, "abs/"):
				rest = strings.TrimPrefix(path, "abs/")
			case strings.HasPrefix(path, "pdf/"):
				rest = strings.TrimPrefix(path, "pdf/")
			default:
				return literature.IdentifierSet{}
			}
			id, _ := ArxivID(rest)
			if id == "" {
				return literature.IdentifierSet{}
			}
			return literature.IdentifierSet{ArxivID: id}
		},
	}
}

// doiResolverMapper extracts DOIs from doi.org resolver URLs.
func doiResolverMapper() Mapper {
	return Mapper{
		Name:  "doi.org",
		Hosts: []string{"doi.org", "dx.doi.org"},
		Extract: func(u *url.URL) literature.IdentifierSet {
			doi := DOI(strings.TrimPrefix(u.Path, "/"))
			if doi == "" {
				return literature.IdentifierSet{}
			}
			return literature.IdentifierSet{DOI: doi}
		},
	}
}

// pubmedMapper extracts PMIDs from pubmed.ncbi.nlm.nih.gov URLs.
func pubmedMapper() Mapper {
	return Mapper{
		Name:  "pubmed",
		Hosts: []string{"pubmed.ncbi.nlm.nih.gov"},
		Extract: func(u *url.URL) literature.IdentifierSet {
			pmid := PMID(strings.Trim(u.Path, "/"))
			if pmid == "" {
				return literature.IdentifierSet{}
			}
			return literature.IdentifierSet{PMID: pmid}
		},
	}
}

// doiInPathMapper covers publishers that embed the DOI in the URL path
// (e.g. /doi/10.1145/3292500.3330701 or /content/10.1101/2020.01.01.123456).
func doiInPathMapper(name string, hosts ...string) Mapper {
	return Mapper{
		Name:  name,
		Hosts: hosts,
		Extract: func(u *url.URL) literature.IdentifierSet {
			doi := FindDOI(u.Path)
			if doi == "" {
				return literature.IdentifierSet{}
			}
			// Publisher paths append format suffixes to the DOI
			doi = strings.TrimSuffix(doi, ".full.pdf")
			doi = strings.TrimSuffix(doi, ".full")
			doi = strings.TrimSuffix(doi, ".pdf")
			doi = strings.TrimSuffix(doi, ".abstract")
			return literature.IdentifierSet{DOI: doi}
		},
	}
}
