// Package citation matches an entity's parsed raw references to stored
// entities and maintains the citation graph: edges for resolved references,
// unresolved placeholder nodes for the rest, and promotion of placeholders
// once the cited paper is ingested.
package citation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/store"
)

const (
	// Edge confidences by matching stage. Exact identifiers are near
	// certain; fuzzy title matches and edges to unresolved placeholder
	// nodes carry real doubt.
	confExactID    = 0.95
	confPaperID    = 0.9
	confFuzzy      = 0.7
	confUnresolved = 0.7

	// fuzzyTitleThreshold gates reference-to-entity title matches.
	fuzzyTitleThreshold = 0.85

	fuzzyCandidateLimit = 10
)

// Resolver matches raw references against the repository.
type Resolver struct {
	db  *store.DB
	log *zap.Logger
}

// New creates a citation resolver.
func New(db *store.DB, log *zap.Logger) *Resolver {
	return &Resolver{db: db, log: log}
}

// Stats summarizes one resolution pass over an entity's references.
type Stats struct {
	Total      int
	Resolved   int
	Unresolved int
}

// ResolveReferences matches every raw reference of the citing entity and
// upserts a citation edge per match. Unmatched references with a usable
// title are materialized as unresolved placeholder nodes so the edge exists
// for later promotion. Per-reference errors are logged and skipped; one
// broken reference must not lose the rest of the list.
func (r *Resolver) ResolveReferences(citing *literature.Entity) (Stats, error) {
	stats := Stats{Total: len(citing.RawReferences)}

	for _, ref := range citing.RawReferences {
		lid, matchSource, confidence := r.matchReference(ref)

		if lid == "" {
			node, ok := r.materializeUnresolved(ref)
			if !ok {
				stats.Unresolved++
				continue
			}
			lid = node.ID
			matchSource = literature.MatchUnresolved
			confidence = confUnresolved
			stats.Unresolved++
		} else {
			stats.Resolved++
		}

		if lid == citing.LID {
			continue
		}
		edge := literature.CitationEdge{
			FromLID:     citing.LID,
			ToLID:       lid,
			Kind:        literature.RelationCites,
			Confidence:  confidence,
			MatchSource: matchSource,
			Metadata:    map[string]string{"ref_index": fmt.Sprintf("%d", ref.Index)},
		}
		if err := r.db.UpsertEdge(edge); err != nil {
			r.log.Warn("upserting citation edge",
				zap.String("from", citing.LID),
				zap.String("to", lid),
				zap.Error(err))
		}
	}

	r.log.Debug("references resolved",
		zap.String("lid", citing.LID),
		zap.Int("total", stats.Total),
		zap.Int("resolved", stats.Resolved),
		zap.Int("unresolved", stats.Unresolved))
	return stats, nil
}

// matchReference tries, in order: exact external id through the alias
// system, source paper-id alias, then fuzzy title match.
func (r *Resolver) matchReference(ref literature.RawReference) (string, string, float64) {
	exact := []struct {
		kind  literature.AliasKind
		value string
	}{
		{literature.AliasDOI, normalize.DOI(ref.DOI)},
		{literature.AliasArxiv, firstArxiv(ref.ArxivID)},
		{literature.AliasPMID, normalize.PMID(ref.PMID)},
	}
	for _, c := range exact {
		if c.value == "" {
			continue
		}
		lid, err := r.db.ResolveAlias(c.kind, c.value)
		if err != nil {
			r.log.Warn("alias lookup failed", zap.String("kind", string(c.kind)), zap.Error(err))
			continue
		}
		if lid != "" {
			return lid, literature.MatchExactID, confExactID
		}
	}

	// DOI and arXiv lookups also hit the entity table directly, covering
	// entities created before their aliases
	if ref.DOI != "" {
		if found, err := r.db.FindByDOI(ref.DOI); err == nil && found != nil && !found.IsPlaceholder() {
			return found.LID, literature.MatchExactID, confExactID
		}
	}
	if ref.ArxivID != "" {
		if found, err := r.db.FindByArxivID(ref.ArxivID); err == nil && found != nil && !found.IsPlaceholder() {
			return found.LID, literature.MatchExactID, confExactID
		}
	}

	if ref.PaperID != "" {
		if found, err := r.db.FindByExternalID(ref.PaperID); err != nil {
			r.log.Warn("external paper-id lookup failed", zap.Error(err))
		} else if found != nil && !found.IsPlaceholder() {
			return found.LID, literature.MatchAlias, confPaperID
		}
	}

	if ref.Title == "" || literature.IsPlaceholderTitle(ref.Title) {
		return "", "", 0
	}
	candidates, err := r.db.FindByFuzzyTitle(ref.Title, fuzzyCandidateLimit)
	if err != nil {
		r.log.Warn("fuzzy reference lookup failed", zap.Error(err))
		return "", "", 0
	}
	for _, cand := range candidates {
		if cand.IsPlaceholder() {
			continue
		}
		if normalize.TitleSimilarity(ref.Title, cand.Meta.Title) >= fuzzyTitleThreshold {
			return cand.LID, literature.MatchFuzzy, confFuzzy
		}
	}
	return "", "", 0
}

// materializeUnresolved creates (or reuses) a placeholder node for an
// unmatched reference with a usable title.
func (r *Resolver) materializeUnresolved(ref literature.RawReference) (store.UnresolvedNode, bool) {
	if ref.Title == "" || literature.IsPlaceholderTitle(ref.Title) {
		return store.UnresolvedNode{}, false
	}
	node, err := r.db.CreateUnresolved(ref.Title, ref.Year)
	if err != nil {
		r.log.Warn("creating unresolved node", zap.String("title", ref.Title), zap.Error(err))
		return store.UnresolvedNode{}, false
	}
	return node, true
}

// PromoteUnresolved rewires placeholder nodes matching the new entity's
// title (exact normalized match, year within ±1) to point at it, then
// discards them. Returns the number of edges rewritten.
func (r *Resolver) PromoteUnresolved(created *literature.Entity) (int, error) {
	if literature.IsPlaceholderTitle(created.Meta.Title) {
		return 0, nil
	}
	nodes, err := r.db.FindUnresolvedByTitle(created.Meta.Title, created.Meta.Year)
	if err != nil {
		return 0, fmt.Errorf("finding unresolved nodes: %w", err)
	}

	rewritten := 0
	for _, node := range nodes {
		n, err := r.db.RewriteEdgeTargets(node.ID, created.LID)
		if err != nil {
			r.log.Warn("promoting unresolved node",
				zap.String("node", node.ID), zap.Error(err))
			continue
		}
		rewritten += n
		if err := r.db.DeleteUnresolved(node.ID); err != nil {
			r.log.Warn("discarding promoted node",
				zap.String("node", node.ID), zap.Error(err))
		}
	}
	if rewritten > 0 {
		r.log.Info("unresolved references promoted",
			zap.String("lid", created.LID),
			zap.Int("edges", rewritten))
	}
	return rewritten, nil
}

func firstArxiv(raw string) string {
	id, _ := normalize.ArxivID(raw)
	return id
}
