package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/citation"
	"github.com/litgraph/litgraph/internal/hooks"
	"github.com/litgraph/litgraph/internal/identity"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/processor"
	"github.com/litgraph/litgraph/internal/store"
	"github.com/litgraph/litgraph/internal/waterfall"
)

type fakeAdapter struct {
	name     string
	priority int
	handles  func(processor.Input) bool
	process  func(processor.Input) (processor.Result, error)
	calls    int32
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Priority() int { return f.priority }

func (f *fakeAdapter) CanHandle(in processor.Input) bool {
	if f.handles == nil {
		return true
	}
	return f.handles(in)
}

func (f *fakeAdapter) Process(_ context.Context, in processor.Input) (processor.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.process(in)
}

func goodResult(source string, in processor.Input) (processor.Result, error) {
	return processor.Result{
		Success: true,
		Metadata: &literature.Metadata{
			Title:    "Attention Is All You Need",
			Authors:  []literature.Author{{First: "Ashish", Last: "Vaswani"}, {First: "Noam", Last: "Shazeer"}},
			Year:     2017,
			Venue:    "NeurIPS",
			Abstract: strings.Repeat("The dominant sequence transduction models are based on recurrent networks. ", 3),
		},
		Identifiers: literature.IdentifierSet{
			DOI:     in.Identifiers.DOI,
			ArxivID: "1706.03762",
		},
		References: []literature.RawReference{
			{Index: 0, Title: "Neural Machine Translation by Jointly Learning to Align and Translate", ArxivID: "1409.0473"},
		},
		Source:     source,
		Confidence: 0.9,
	}, nil
}

func newTestPipeline(t *testing.T, adapters ...processor.Processor) (*Pipeline, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "litgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	registry, err := processor.NewRegistry(adapters...)
	require.NoError(t, err)
	exec := waterfall.New(registry, log)
	dispatcher := hooks.NewDefaultDispatcher(db, citation.New(db, log), log)
	return New(db, exec, dispatcher, log, WithPDFExtractor(nil)), db
}

func TestResolveCreatesEntity(t *testing.T) {
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) { return goodResult("crossref", in) },
	}
	p, db := newTestPipeline(t, adapter)

	out, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.NoError(t, err)
	require.True(t, out.Created)
	assert.True(t, identity.Valid(out.LID), "LID %q must match the identity grammar", out.LID)
	assert.True(t, strings.HasPrefix(out.LID, "2017-vaswani-"), "LID %q derives from metadata", out.LID)

	stored, err := db.GetByLID(out.LID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Attention Is All You Need", stored.Meta.Title)
	assert.Equal(t, "1706.03762", stored.Identifiers.ArxivID)
	assert.NotEqual(t, literature.OverallFailed, stored.Components.Overall())

	// The creation hooks registered aliases and persisted a quality score.
	lid, err := db.ResolveAlias(literature.AliasDOI, "10.48550/arxiv.1706.03762")
	require.NoError(t, err)
	assert.Equal(t, out.LID, lid)
	assert.Greater(t, stored.QualityScore, 0)

	// No in-flight mark survives the resolution.
	task, err := db.InFlightTask("doi", "10.48550/arxiv.1706.03762")
	require.NoError(t, err)
	assert.Empty(t, task)
}

func TestResolveKnownDOIFullMetadataIsPartialCompleted(t *testing.T) {
	// The source confirms the caller-supplied DOI without discovering
	// anything new and returns no references. Full metadata must still
	// read as a complete parse, so the entity lands on partial_completed
	// rather than minimal_completed.
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) {
			res, _ := goodResult("crossref", in)
			res.Identifiers = literature.IdentifierSet{DOI: in.Identifiers.DOI}
			res.References = nil
			return res, nil
		},
	}
	p, db := newTestPipeline(t, adapter)

	out, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.1000/182"})
	require.NoError(t, err)
	require.True(t, out.Created)
	assert.Equal(t, literature.OverallPartialCompleted, out.Status)

	stored, err := db.GetByLID(out.LID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, literature.StatusSuccess, stored.Components.Metadata.Status)
}

func TestResolveSecondRequestIsDuplicate(t *testing.T) {
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) { return goodResult("crossref", in) },
	}
	p, db := newTestPipeline(t, adapter)

	first, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.NoError(t, err)

	second, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.LID, second.LID)
	assert.False(t, second.Created)

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), atomic.LoadInt32(&adapter.calls),
		"the duplicate request must not reach the network")
}

func TestResolvePostFetchFuzzyDuplicate(t *testing.T) {
	adapter := &fakeAdapter{
		name: "s2", priority: 30,
		process: func(in processor.Input) (processor.Result, error) {
			res, _ := goodResult("s2", in)
			// A different arXiv id for the same paper, so the exact
			// stage cannot catch it.
			res.Identifiers = literature.IdentifierSet{ArxivID: in.Identifiers.ArxivID}
			return res, nil
		},
	}
	p, db := newTestPipeline(t, adapter)

	first, err := p.Resolve(context.Background(), literature.RawInput{ArxivID: "1706.03762"})
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := p.Resolve(context.Background(), literature.RawInput{ArxivID: "1706.03762v5-mirror"})
	if err == nil {
		assert.True(t, second.Duplicate)
		assert.Equal(t, first.LID, second.LID)
	}

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the fuzzy stage must fold the mirror into the original")
}

func TestResolveEmptyInput(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Resolve(context.Background(), literature.RawInput{})
	var rerr *literature.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, literature.ErrKindInvalidData, rerr.Kind)
}

func TestResolveAllSourcesFailed(t *testing.T) {
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(processor.Input) (processor.Result, error) {
			return processor.Result{}, assert.AnError
		},
	}
	p, db := newTestPipeline(t, adapter)

	_, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.1234/broken"})
	var rerr *literature.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, literature.ErrKindAllProcessorsFailed, rerr.Kind)

	// The placeholder stays behind marked failed, so a later request can
	// detect and replace the stale record.
	stored, err := db.FindByDOI("10.1234/broken")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, literature.OverallFailed, stored.Components.Overall())
}

func TestResolveRetriedAfterFailure(t *testing.T) {
	var attempts int32
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return processor.Result{}, assert.AnError
			}
			return goodResult("crossref", in)
		},
	}
	p, db := newTestPipeline(t, adapter)

	_, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.Error(t, err)

	// The retry finds the stale failed entity, deletes it, and commits a
	// fresh one.
	out, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.NoError(t, err)
	assert.True(t, out.Created)

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolvePDFLinkGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) { return goodResult("crossref", in) },
	}
	db, err := store.Open(filepath.Join(t.TempDir(), "litgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	registry, err := processor.NewRegistry(adapter)
	require.NoError(t, err)
	dispatcher := hooks.NewDefaultDispatcher(db, citation.New(db, log), log)
	p := New(db, waterfall.New(registry, log), dispatcher, log)

	_, err = p.Resolve(context.Background(), literature.RawInput{PDFURL: srv.URL + "/paper.pdf"})
	var rerr *literature.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, literature.ErrKindURLNotFound, rerr.Kind)

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a dead link must not leave an entity behind")
}

func TestResolveReferencesProduceEdges(t *testing.T) {
	adapter := &fakeAdapter{
		name: "crossref", priority: 10,
		process: func(in processor.Input) (processor.Result, error) { return goodResult("crossref", in) },
	}
	p, db := newTestPipeline(t, adapter)

	out, err := p.Resolve(context.Background(), literature.RawInput{DOI: "10.48550/arxiv.1706.03762"})
	require.NoError(t, err)

	// The unmatched reference became an unresolved placeholder node with
	// an edge pointing at it.
	edges, err := db.EdgesFrom(out.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Contains(t, edges[0].ToLID, "unres-")
}
