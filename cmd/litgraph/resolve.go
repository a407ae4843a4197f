package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/pdfmeta"
)

var resolveFlags struct {
	doi     string
	arxiv   string
	pmid    string
	url     string
	pdfURL  string
	pdfFile string
	title   string
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFlags.doi, "doi", "", "DOI to resolve")
	resolveCmd.Flags().StringVar(&resolveFlags.arxiv, "arxiv", "", "arXiv id to resolve")
	resolveCmd.Flags().StringVar(&resolveFlags.pmid, "pmid", "", "PubMed id to resolve")
	resolveCmd.Flags().StringVar(&resolveFlags.url, "url", "", "Paper page URL to resolve")
	resolveCmd.Flags().StringVar(&resolveFlags.pdfURL, "pdf-url", "", "Direct PDF URL to resolve")
	resolveCmd.Flags().StringVar(&resolveFlags.pdfFile, "pdf", "", "Local PDF file to scan (relative paths resolve against pdf_root)")
	resolveCmd.Flags().StringVar(&resolveFlags.title, "title", "", "Title hint for search-based sources")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [input]",
	Short: "Resolve an identifier or URL into a literature entity",
	Long: `Resolve an identifier into a deduplicated literature entity.

The positional input is classified automatically: DOIs, arXiv ids, and
URLs are recognized by shape. Explicit flags override classification.

Examples:
  litgraph resolve 10.48550/arXiv.1706.03762
  litgraph resolve arXiv:1706.03762
  litgraph resolve https://arxiv.org/abs/1706.03762
  litgraph resolve --pdf-url https://arxiv.org/pdf/1706.03762 --title "Attention Is All You Need"
  litgraph resolve papers/attention.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

// ResolveResponse is the JSON shape of a resolve outcome.
type ResolveResponse struct {
	LID            string `json:"lid,omitempty"`
	Created        bool   `json:"created"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	DuplicateStage string `json:"duplicate_stage,omitempty"`
	InFlightTask   string `json:"in_flight_task,omitempty"`
	Status         string `json:"status,omitempty"`
	Title          string `json:"title,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	raw := literature.RawInput{
		DOI:     resolveFlags.doi,
		ArxivID: resolveFlags.arxiv,
		PMID:    resolveFlags.pmid,
		URL:     resolveFlags.url,
		PDFURL:  resolveFlags.pdfURL,
		Title:   resolveFlags.title,
	}
	pdfFile := resolveFlags.pdfFile
	if len(args) == 1 {
		if isLocalPDFPath(args[0]) && pdfFile == "" {
			pdfFile = args[0]
		} else {
			classifyInput(args[0], &raw)
		}
	}
	if raw.IsEmpty() && pdfFile == "" {
		exitWithError(ExitDataError, "nothing to resolve: pass an identifier or use the flags")
	}

	_, cfg, db := openRepo()
	defer db.Close()

	if pdfFile != "" {
		scanLocalPDF(cfg, pdfFile, &raw)
	}

	log := newLogger()
	defer log.Sync()

	p, err := newPipeline(cfg, db, log)
	if err != nil {
		exitWithError(ExitError, "assembling engine: %v", err)
	}

	out, err := p.Resolve(context.Background(), raw)
	if err != nil {
		var rerr *literature.ResolveError
		if errors.As(err, &rerr) {
			exitWithError(ExitDataError, "%v", rerr)
		}
		exitWithError(ExitError, "%v", err)
	}

	if out.InFlightTask != "" {
		if humanOutput {
			outputHuman("busy: task %s is already resolving this input\n", out.InFlightTask)
		} else {
			outputJSON(ResolveResponse{InFlightTask: out.InFlightTask, DuplicateStage: out.DuplicateStage})
		}
		// Not an error; the other task will commit the entity.
		return nil
	}

	resp := ResolveResponse{
		LID:            out.LID,
		Created:        out.Created,
		Duplicate:      out.Duplicate,
		DuplicateStage: out.DuplicateStage,
		Status:         string(out.Status),
	}
	if out.Entity != nil {
		resp.Title = out.Entity.Meta.Title
	}

	if humanOutput {
		if out.Duplicate {
			outputHuman("duplicate of %s (%s stage)\n", out.LID, out.DuplicateStage)
		} else {
			outputHuman("created %s (%s)\n", out.LID, out.Status)
		}
		if out.Entity != nil {
			printEntityDetail(out.Entity)
		}
	} else {
		outputJSON(resp)
	}
	return nil
}

// isLocalPDFPath reports whether a positional argument names a PDF on disk
// rather than an identifier or URL.
func isLocalPDFPath(arg string) bool {
	lower := strings.ToLower(strings.TrimSpace(arg))
	return strings.HasSuffix(lower, ".pdf") &&
		!strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}

// scanLocalPDF extracts identifiers from a PDF file and seeds the raw input
// with whatever the flags left blank. Relative paths resolve against the
// configured pdf_root.
func scanLocalPDF(cfg *config.Config, path string, raw *literature.RawInput) {
	path = resolvePDFPath(cfg, path)

	ext, err := pdfmeta.ExtractFile(path)
	if err != nil {
		exitWithError(ExitDataError, "scanning %s: %v", path, err)
	}
	if ext.DOI != "" && raw.DOI == "" {
		raw.DOI = ext.DOI
	}
	if ext.ArxivID != "" && raw.ArxivID == "" {
		raw.ArxivID = ext.ArxivID
	}
	if ext.Title != "" && raw.Title == "" {
		raw.Title = ext.Title
	}
	if raw.IsEmpty() {
		exitWithError(ExitDataError, "no identifiers or title found in %s", path)
	}
}

// resolvePDFPath expands a PDF path and anchors relative paths at the
// configured pdf_root.
func resolvePDFPath(cfg *config.Config, path string) string {
	path = config.ExpandPath(path)
	if !filepath.IsAbs(path) && cfg.PDFRoot != "" {
		path = filepath.Join(cfg.PDFRoot, path)
	}
	return path
}

// classifyInput fills the raw input from a positional argument by shape.
// Explicit flags win over classification.
func classifyInput(arg string, raw *literature.RawInput) {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)

	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		if strings.HasSuffix(lower, ".pdf") && raw.PDFURL == "" {
			raw.PDFURL = arg
		} else if raw.URL == "" {
			raw.URL = arg
		}
	case strings.HasPrefix(lower, "arxiv:"):
		if raw.ArxivID == "" {
			raw.ArxivID = arg
		}
	case strings.HasPrefix(lower, "10.") && strings.Contains(arg, "/"),
		strings.HasPrefix(lower, "doi:"):
		if raw.DOI == "" {
			raw.DOI = arg
		}
	case strings.HasPrefix(lower, "pmid:"):
		if raw.PMID == "" {
			raw.PMID = arg[len("pmid:"):]
		}
	default:
		if raw.Title == "" {
			raw.Title = arg
		}
	}
}
