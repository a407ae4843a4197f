// Package pubmed implements the PubMed E-utilities adapter: efetch lookup by
// PMID with XML article parsing.
package pubmed

import "encoding/xml"

// articleSet is the root of an efetch XML response.
type articleSet struct {
	XMLName  xml.Name  `xml:"PubmedArticleSet"`
	Articles []article `xml:"PubmedArticle"`
}

// article is a single PubMed record.
type article struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Text []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []articleAuthor `xml:"AuthorList>Author"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year string `xml:"Year"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			ELocationID []eLocationID `xml:"ELocationID"`
		} `xml:"Article"`
		Keywords []string `xml:"KeywordList>Keyword"`
	} `xml:"MedlineCitation"`
}

type articleAuthor struct {
	LastName   string `xml:"LastName"`
	ForeName   string `xml:"ForeName"`
	Initials   string `xml:"Initials"`
	Collective string `xml:"CollectiveName"`
}

// eLocationID carries the article-level DOI when one is recorded.
type eLocationID struct {
	IDType  string `xml:"EIdType,attr"`
	ValidYN string `xml:"ValidYN,attr"`
	Value   string `xml:",chardata"`
}
