package citation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/store"
)

func newTestResolver(t *testing.T) (*Resolver, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "litgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, zap.NewNop()), db
}

func storedPaper(t *testing.T, db *store.DB, lid, title string, year int, ids literature.IdentifierSet) *literature.Entity {
	t.Helper()
	e := &literature.Entity{
		LID:         lid,
		Identifiers: ids,
		Meta: literature.Metadata{
			Title:   title,
			Year:    year,
			Authors: []literature.Author{{First: "Ashish", Last: "Vaswani"}},
		},
		Components: literature.NewComponentSet(),
	}
	require.NoError(t, db.CreatePlaceholder(e))
	return e
}

func TestResolveReferencesExactIDMatch(t *testing.T) {
	r, db := newTestResolver(t)

	cited := storedPaper(t, db, "2015-he-drl-aa11", "Deep Residual Learning for Image Recognition", 2015,
		literature.IdentifierSet{DOI: "10.1109/cvpr.2016.90"})
	_, _, err := db.UpsertAlias(literature.AliasMapping{
		Kind: literature.AliasDOI, Value: "10.1109/cvpr.2016.90", LID: cited.LID, Confidence: 1.0,
	})
	require.NoError(t, err)

	citing := storedPaper(t, db, "2017-vaswani-ayn-bb22", "Attention Is All You Need", 2017,
		literature.IdentifierSet{ArxivID: "1706.03762"})
	citing.RawReferences = []literature.RawReference{
		{Index: 0, Title: "Deep Residual Learning for Image Recognition", DOI: "https://doi.org/10.1109/CVPR.2016.90"},
	}

	stats, err := r.ResolveReferences(citing)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Unresolved)

	edges, err := db.EdgesFrom(citing.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, cited.LID, edges[0].ToLID)
	assert.Equal(t, literature.MatchExactID, edges[0].MatchSource)
	assert.InDelta(t, confExactID, edges[0].Confidence, 1e-9)
}

func TestResolveReferencesPaperIDMatch(t *testing.T) {
	r, db := newTestResolver(t)

	cited := storedPaper(t, db, "2018-devlin-bpd-cc33", "BERT: Pre-training of Deep Bidirectional Transformers", 2018,
		literature.IdentifierSet{})
	cited.Meta.ExternalIDs = map[string]string{"s2": "df2b0e26d0599ce3e70df8a9da02e51594e0e992"}
	require.NoError(t, db.Update(cited))

	citing := storedPaper(t, db, "2019-liu-rar-dd44", "RoBERTa: A Robustly Optimized BERT Pretraining Approach", 2019,
		literature.IdentifierSet{ArxivID: "1907.11692"})
	citing.RawReferences = []literature.RawReference{
		{Index: 0, PaperID: "df2b0e26d0599ce3e70df8a9da02e51594e0e992"},
	}

	stats, err := r.ResolveReferences(citing)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)

	edges, err := db.EdgesFrom(citing.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, cited.LID, edges[0].ToLID)
	assert.Equal(t, literature.MatchAlias, edges[0].MatchSource)
}

func TestResolveReferencesFuzzyTitleMatch(t *testing.T) {
	r, db := newTestResolver(t)

	cited := storedPaper(t, db, "2014-sutskever-sls-ee55", "Sequence to Sequence Learning with Neural Networks", 2014,
		literature.IdentifierSet{})

	citing := storedPaper(t, db, "2017-vaswani-ayn-ff66", "Attention Is All You Need", 2017,
		literature.IdentifierSet{ArxivID: "1706.03762"})
	citing.RawReferences = []literature.RawReference{
		{Index: 0, Title: "Sequence to sequence learning with neural networks."},
	}

	stats, err := r.ResolveReferences(citing)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)

	edges, err := db.EdgesFrom(citing.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, cited.LID, edges[0].ToLID)
	assert.Equal(t, literature.MatchFuzzy, edges[0].MatchSource)
}

func TestResolveReferencesMaterializesUnresolved(t *testing.T) {
	r, db := newTestResolver(t)

	citing := storedPaper(t, db, "2017-vaswani-ayn-0011", "Attention Is All You Need", 2017,
		literature.IdentifierSet{ArxivID: "1706.03762"})
	citing.RawReferences = []literature.RawReference{
		{Index: 0, Title: "Some Paper Nobody Ingested Yet", Year: 2016},
		{Index: 1, Text: "mangled ocr output with no title"},
	}

	stats, err := r.ResolveReferences(citing)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Resolved)
	assert.Equal(t, 2, stats.Unresolved)

	// Only the reference with a title gets a placeholder node and an edge.
	edges, err := db.EdgesFrom(citing.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Contains(t, edges[0].ToLID, "unres-")
	assert.Equal(t, literature.MatchUnresolved, edges[0].MatchSource,
		"placeholder edges must be distinguishable from real fuzzy matches")

	node, err := db.GetUnresolved(edges[0].ToLID)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "Some Paper Nobody Ingested Yet", node.Title)
}

func TestPromoteUnresolvedRewiresEdges(t *testing.T) {
	r, db := newTestResolver(t)

	citing := storedPaper(t, db, "2017-vaswani-ayn-1122", "Attention Is All You Need", 2017,
		literature.IdentifierSet{ArxivID: "1706.03762"})
	citing.RawReferences = []literature.RawReference{
		{Index: 0, Title: "Layer Normalization", Year: 2016},
	}
	_, err := r.ResolveReferences(citing)
	require.NoError(t, err)

	arrived := storedPaper(t, db, "2016-ba-ln-2233", "Layer Normalization", 2016,
		literature.IdentifierSet{ArxivID: "1607.06450"})

	rewritten, err := r.PromoteUnresolved(arrived)
	require.NoError(t, err)
	assert.Equal(t, 1, rewritten)

	edges, err := db.EdgesFrom(citing.LID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, arrived.LID, edges[0].ToLID)
	assert.Equal(t, literature.MatchFuzzy, edges[0].MatchSource,
		"a promoted edge sheds the unresolved tag")

	// The placeholder is gone; a re-run of promotion is a no-op.
	nodes, err := db.FindUnresolvedByTitle("Layer Normalization", 2016)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestQueryGraphBoundsDepthAndConfidence(t *testing.T) {
	r, db := newTestResolver(t)

	a := storedPaper(t, db, "2017-vaswani-ayn-3344", "Attention Is All You Need", 2017, literature.IdentifierSet{})
	b := storedPaper(t, db, "2015-he-drl-4455", "Deep Residual Learning", 2015, literature.IdentifierSet{})
	c := storedPaper(t, db, "2014-kingma-ams-5566", "Adam: A Method for Stochastic Optimization", 2014, literature.IdentifierSet{})

	require.NoError(t, db.UpsertEdge(literature.CitationEdge{
		FromLID: a.LID, ToLID: b.LID, Kind: literature.RelationCites, Confidence: 0.95, MatchSource: literature.MatchExactID,
	}))
	require.NoError(t, db.UpsertEdge(literature.CitationEdge{
		FromLID: b.LID, ToLID: c.LID, Kind: literature.RelationCites, Confidence: 0.5, MatchSource: literature.MatchFuzzy,
	}))

	// Low-confidence edges are filtered out, so C is never reached.
	g, err := r.QueryGraph(GraphQuery{Centers: []string{a.LID}, MaxDepth: 2, MinConfidence: 0.9})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, b.LID, g.Edges[0].To)

	// With the threshold relaxed, depth 2 reaches C through B.
	g, err = r.QueryGraph(GraphQuery{Centers: []string{a.LID}, MaxDepth: 2, MinConfidence: 0.0})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)

	// Depth 1 stops at the immediate neighborhood.
	g, err = r.QueryGraph(GraphQuery{Centers: []string{a.LID}, MaxDepth: 1, MinConfidence: 0.0})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)

	var center int
	for _, n := range g.Nodes {
		if n.IsCenter {
			center++
			assert.Equal(t, a.LID, n.LID)
		}
	}
	assert.Equal(t, 1, center)
}

func TestQueryGraphRejectsBadBounds(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.QueryGraph(GraphQuery{Centers: nil, MaxDepth: 2})
	assert.Error(t, err)
	_, err = r.QueryGraph(GraphQuery{Centers: []string{"x"}, MaxDepth: 0})
	assert.Error(t, err)
	_, err = r.QueryGraph(GraphQuery{Centers: []string{"x"}, MaxDepth: 6})
	assert.Error(t, err)
	_, err = r.QueryGraph(GraphQuery{Centers: []string{"x"}, MaxDepth: 2, MinConfidence: 1.5})
	assert.Error(t, err)
}
