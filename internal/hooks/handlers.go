package hooks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/citation"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/store"
)

// Alias confidences by source of the derived value.
const (
	aliasConfIdentifier = 1.0
	aliasConfURL        = 0.9
	aliasConfTitle      = 0.7
)

// NewDefaultDispatcher wires the standard handler set:
//
//	metadata_updated   -> quality assessment
//	literature_created -> alias registration, unresolved promotion,
//	                      cascade to references_fetched
//	references_fetched -> citation resolution
//	duplicate_found    -> alias the duplicate's identifiers to the survivor
func NewDefaultDispatcher(db *store.DB, cites *citation.Resolver, log *zap.Logger) *Dispatcher {
	d := NewDispatcher(log)
	d.Register(MetadataUpdated, QualityHandler(db))
	d.Register(LiteratureCreated, AliasHandler(db, log))
	d.Register(LiteratureCreated, PromotionHandler(cites))
	d.Register(LiteratureCreated, referenceCascade())
	d.Register(ReferencesFetched, CitationHandler(cites))
	d.Register(DuplicateFound, DuplicateAliasHandler(db, log))
	return d
}

// QualityHandler persists the metadata completeness score.
func QualityHandler(db *store.DB) Handler {
	return HandlerFunc("quality-assessment", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil {
			return Result{}, nil
		}
		score := literature.QualityScore(ev.Entity.Meta, ev.Entity.Identifiers)
		if err := db.SetQualityScore(ev.Entity.LID, score); err != nil {
			return Result{}, fmt.Errorf("persisting quality score: %w", err)
		}
		return Result{}, nil
	})
}

// AliasHandler derives every known external-id, URL, and title alias for a
// new entity and registers the mappings. An alias already pointing at a
// different LID is left untouched and logged.
func AliasHandler(db *store.DB, log *zap.Logger) Handler {
	return HandlerFunc("alias-registration", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil {
			return Result{}, nil
		}
		registerAliases(db, log, ev.Entity, ev.Entity.LID)
		return Result{}, nil
	})
}

// PromotionHandler rewires unresolved placeholder nodes matching the new
// entity's title onto its LID.
func PromotionHandler(cites *citation.Resolver) Handler {
	return HandlerFunc("unresolved-promotion", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil {
			return Result{}, nil
		}
		_, err := cites.PromoteUnresolved(ev.Entity)
		return Result{}, err
	})
}

// CitationHandler matches the entity's raw references against the
// repository and writes citation edges.
func CitationHandler(cites *citation.Resolver) Handler {
	return HandlerFunc("citation-resolution", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil || len(ev.Entity.RawReferences) == 0 {
			return Result{}, nil
		}
		_, err := cites.ResolveReferences(ev.Entity)
		return Result{}, err
	})
}

// DuplicateAliasHandler maps the incoming request's identifiers onto the
// surviving entity, so the next request with the same identifiers resolves
// without a fetch. First-writer-wins keeps any existing mapping intact.
func DuplicateAliasHandler(db *store.DB, log *zap.Logger) Handler {
	return HandlerFunc("duplicate-alias", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil || ev.DuplicateLID == "" {
			return Result{}, nil
		}
		registerAliases(db, log, ev.Entity, ev.DuplicateLID)
		return Result{}, nil
	})
}

// referenceCascade defers citation work until the creation event's own
// handlers (alias registration in particular) have completed.
func referenceCascade() Handler {
	return HandlerFunc("reference-cascade", func(_ context.Context, ev Event) (Result, error) {
		if ev.Entity == nil || len(ev.Entity.RawReferences) == 0 {
			return Result{}, nil
		}
		return Result{Next: &Event{
			Kind:   ReferencesFetched,
			Entity: ev.Entity,
			TaskID: ev.TaskID,
		}}, nil
	})
}

func registerAliases(db *store.DB, log *zap.Logger, e *literature.Entity, lid string) {
	type candidate struct {
		kind       literature.AliasKind
		value      string
		confidence float64
	}
	arxivID, _ := normalize.ArxivID(e.Identifiers.ArxivID)
	candidates := []candidate{
		{literature.AliasDOI, normalize.DOI(e.Identifiers.DOI), aliasConfIdentifier},
		{literature.AliasArxiv, arxivID, aliasConfIdentifier},
		{literature.AliasPMID, normalize.PMID(e.Identifiers.PMID), aliasConfIdentifier},
		{literature.AliasURL, normalize.URL(e.Identifiers.URL), aliasConfURL},
		{literature.AliasPDFURL, normalize.URL(pickString(e.PDFURL, e.Identifiers.PDFURL)), aliasConfURL},
		{literature.AliasSourcePage, normalize.URL(e.SourcePageURL), aliasConfURL},
	}
	if !literature.IsPlaceholderTitle(e.Meta.Title) {
		candidates = append(candidates,
			candidate{literature.AliasTitle, normalize.Title(e.Meta.Title), aliasConfTitle})
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		owner, written, err := db.UpsertAlias(literature.AliasMapping{
			Kind:       c.kind,
			Value:      c.value,
			LID:        lid,
			Confidence: c.confidence,
			Source:     "hook",
		})
		if err != nil {
			log.Warn("registering alias",
				zap.String("kind", string(c.kind)), zap.Error(err))
			continue
		}
		if !written && owner != lid {
			log.Debug("alias already owned",
				zap.String("kind", string(c.kind)),
				zap.String("value", c.value),
				zap.String("owner", owner))
		}
	}
}

func pickString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
