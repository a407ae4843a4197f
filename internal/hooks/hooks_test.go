package hooks

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/citation"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/store"
)

func TestDispatchRunsAllHandlers(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var calls int32
	for i := 0; i < 5; i++ {
		d.Register(MetadataUpdated, HandlerFunc("counter", func(context.Context, Event) (Result, error) {
			atomic.AddInt32(&calls, 1)
			return Result{}, nil
		}))
	}

	d.Dispatch(context.Background(), Event{Kind: MetadataUpdated})
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestDispatchIsolatesFailures(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var survived int32
	d.Register(LiteratureCreated, HandlerFunc("panics", func(context.Context, Event) (Result, error) {
		panic("handler bug")
	}))
	d.Register(LiteratureCreated, HandlerFunc("errors", func(context.Context, Event) (Result, error) {
		return Result{}, assert.AnError
	}))
	d.Register(LiteratureCreated, HandlerFunc("fine", func(context.Context, Event) (Result, error) {
		atomic.AddInt32(&survived, 1)
		return Result{}, nil
	}))

	d.Dispatch(context.Background(), Event{Kind: LiteratureCreated})
	assert.Equal(t, int32(1), atomic.LoadInt32(&survived),
		"a panicking or failing sibling must not abort the rest")
}

func TestDispatchCascadeFiresAfterSiblings(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var mu sync.Mutex
	var order []string
	note := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	d.Register(LiteratureCreated, HandlerFunc("first", func(context.Context, Event) (Result, error) {
		note("first")
		return Result{Next: &Event{Kind: ReferencesFetched}}, nil
	}))
	d.Register(LiteratureCreated, HandlerFunc("second", func(context.Context, Event) (Result, error) {
		note("second")
		return Result{}, nil
	}))
	d.Register(ReferencesFetched, HandlerFunc("followup", func(context.Context, Event) (Result, error) {
		note("followup")
		return Result{}, nil
	}))

	d.Dispatch(context.Background(), Event{Kind: LiteratureCreated})

	require.Len(t, order, 3)
	assert.Equal(t, "followup", order[2],
		"follow-up event fires only after every creation handler returned")
}

func TestDispatchBoundsCascade(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var fires int32
	d.Register(MetadataUpdated, HandlerFunc("looper", func(context.Context, Event) (Result, error) {
		atomic.AddInt32(&fires, 1)
		return Result{Next: &Event{Kind: MetadataUpdated}}, nil
	}))

	d.Dispatch(context.Background(), Event{Kind: MetadataUpdated})
	assert.Equal(t, int32(maxCascadeDepth+1), atomic.LoadInt32(&fires),
		"a self-feeding handler is cut off at the cascade bound")
}

func newHookFixture(t *testing.T) (*Dispatcher, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "litgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cites := citation.New(db, zap.NewNop())
	return NewDefaultDispatcher(db, cites, zap.NewNop()), db
}

func TestLiteratureCreatedRegistersAliasesAndEdges(t *testing.T) {
	d, db := newHookFixture(t)

	cited := &literature.Entity{
		LID:         "2015-he-drl-aa11",
		Identifiers: literature.IdentifierSet{DOI: "10.1109/cvpr.2016.90"},
		Meta:        literature.Metadata{Title: "Deep Residual Learning for Image Recognition", Year: 2015},
		Components:  literature.NewComponentSet(),
	}
	require.NoError(t, db.CreatePlaceholder(cited))
	d.Dispatch(context.Background(), Event{Kind: LiteratureCreated, Entity: cited})

	entity := &literature.Entity{
		LID:         "2017-vaswani-ayn-bb22",
		Identifiers: literature.IdentifierSet{ArxivID: "1706.03762", URL: "https://arxiv.org/abs/1706.03762"},
		Meta: literature.Metadata{
			Title:   "Attention Is All You Need",
			Year:    2017,
			Authors: []literature.Author{{First: "Ashish", Last: "Vaswani"}},
		},
		RawReferences: []literature.RawReference{
			{Index: 0, DOI: "10.1109/cvpr.2016.90"},
		},
		Components: literature.NewComponentSet(),
	}
	require.NoError(t, db.CreatePlaceholder(entity))

	d.Dispatch(context.Background(), Event{Kind: LiteratureCreated, Entity: entity})

	lid, err := db.ResolveAlias(literature.AliasArxiv, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, entity.LID, lid)

	lid, err = db.ResolveAlias(literature.AliasURL, "arxiv.org/abs/1706.03762")
	require.NoError(t, err)
	assert.Equal(t, entity.LID, lid)

	// The cascade resolved the reference against the cited entity's alias.
	edges, err := db.EdgesFrom(entity.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, cited.LID, edges[0].ToLID)
}

func TestMetadataUpdatedPersistsQuality(t *testing.T) {
	d, db := newHookFixture(t)

	entity := &literature.Entity{
		LID:         "2017-vaswani-ayn-cc33",
		Identifiers: literature.IdentifierSet{ArxivID: "1706.03762"},
		Meta: literature.Metadata{
			Title:   "Attention Is All You Need",
			Year:    2017,
			Authors: []literature.Author{{First: "Ashish", Last: "Vaswani"}},
		},
		Components: literature.NewComponentSet(),
	}
	require.NoError(t, db.CreatePlaceholder(entity))

	d.Dispatch(context.Background(), Event{Kind: MetadataUpdated, Entity: entity})

	stored, err := db.GetByLID(entity.LID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	// title 25 + authors 20 + identifier 20 + year 5
	assert.Equal(t, 70, stored.QualityScore)
}

func TestDuplicateFoundAliasesLoser(t *testing.T) {
	d, db := newHookFixture(t)

	survivor := &literature.Entity{
		LID:         "2017-vaswani-ayn-dd44",
		Identifiers: literature.IdentifierSet{ArxivID: "1706.03762"},
		Meta:        literature.Metadata{Title: "Attention Is All You Need", Year: 2017},
		Components:  literature.NewComponentSet(),
	}
	require.NoError(t, db.CreatePlaceholder(survivor))

	// The duplicate request arrived through a different URL; its aliases
	// must land on the surviving entity.
	incoming := &literature.Entity{
		Identifiers: literature.IdentifierSet{
			ArxivID: "1706.03762",
			URL:     "https://www.semanticscholar.org/paper/attention?utm_source=feed",
		},
	}
	d.Dispatch(context.Background(), Event{
		Kind:         DuplicateFound,
		Entity:       incoming,
		DuplicateLID: survivor.LID,
	})

	lid, err := db.ResolveAlias(literature.AliasURL, "semanticscholar.org/paper/attention")
	require.NoError(t, err)
	assert.Equal(t, survivor.LID, lid)
}
