// Package crossref implements the Crossref works adapter: exact metadata
// lookup by DOI, including the parsed reference list.
package crossref

// worksResponse is the envelope of /works/{doi}.
type worksResponse struct {
	Status  string `json:"status"`
	Message work   `json:"message"`
}

// work is the Crossref work record, limited to the fields we map.
type work struct {
	DOI            string      `json:"DOI"`
	Title          []string    `json:"title"`
	ContainerTitle []string    `json:"container-title"`
	Abstract       string      `json:"abstract"`
	Author         []author    `json:"author"`
	Issued         dateParts   `json:"issued"`
	Subject        []string    `json:"subject"`
	URL            string      `json:"URL"`
	Link           []link      `json:"link"`
	Reference      []reference `json:"reference"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // consortia have a single name field
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 if absent.
func (d dateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

type link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// reference is one entry of the work's reference list.
type reference struct {
	Key          string `json:"key"`
	DOI          string `json:"DOI"`
	ArticleTitle string `json:"article-title"`
	Author       string `json:"author"`
	Year         string `json:"year"`
	Unstructured string `json:"unstructured"`
}
