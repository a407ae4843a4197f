// Package dedup implements the staged duplicate-detection waterfall run
// before and after metadata fetch. Every stage short-circuits on its first
// match; stage-internal errors are absorbed as "no duplicate" because a
// dedup bug must never block ingestion. The one exception is the URL
// validation gate, which aborts the pipeline before any downstream work.
package dedup

import (
	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/store"
)

// Stage labels reported with a match.
const (
	StageExactID  = "exact-id"
	StageAliasURL = "alias-url"
	StageInFlight = "in-flight"
	StageFuzzy    = "fuzzy"
)

const (
	// titleThreshold and authorThreshold gate the fuzzy stage. Both must
	// hold before two records are declared the same paper.
	titleThreshold  = 0.8
	authorThreshold = 0.6

	// minAuthoritativeQuality excludes low-quality stored entries from
	// fuzzy matching so re-resolution can replace them.
	minAuthoritativeQuality = 30

	// fuzzyCandidateLimit bounds candidates fetched per fuzzy check.
	fuzzyCandidateLimit = 20
)

// Request carries the state a dedup pass runs against. The pre-fetch pass
// has identifiers only; the post-fetch pass adds title and authors.
type Request struct {
	Identifiers literature.IdentifierSet
	Title       string
	Authors     []literature.Author

	// TaskID identifies the calling resolution task for the in-flight
	// check, so a task does not collide with its own mark.
	TaskID string

	// URLError is the identifier-extraction failure for URL inputs, when
	// one occurred. Unreachable-resource kinds halt resolution here.
	URLError *literature.ResolveError
}

// Match reports a detected duplicate.
type Match struct {
	// LID is the existing entity, empty for in-flight matches where the
	// winning entity does not exist yet.
	LID string

	// Stage names the detecting stage.
	Stage string

	// InFlightTask is the task currently resolving the identifier, set
	// only for in-flight matches.
	InFlightTask string
}

// Engine runs the staged checks against the repository.
type Engine struct {
	db  *store.DB
	log *zap.Logger
}

// New creates a dedup engine.
func New(db *store.DB, log *zap.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// Resolve runs the stages against the request and returns the first match,
// or nil when the input is new. The returned error is non-nil only for the
// URL validation gate; everything else fails open.
func (e *Engine) Resolve(req Request) (*Match, error) {
	if err := e.urlGate(req); err != nil {
		return nil, err
	}

	if m := e.exactStage(req); m != nil {
		return m, nil
	}
	if m := e.aliasURLStage(req); m != nil {
		return m, nil
	}
	if m := e.inFlightStage(req); m != nil {
		return m, nil
	}
	if m := e.fuzzyStage(req); m != nil {
		return m, nil
	}
	return nil, nil
}

// urlGate halts resolution when identifier extraction already proved the
// resource absent, unreachable, or unparseable. Continuing would waste
// downstream work on a URL that cannot yield an entity.
func (e *Engine) urlGate(req Request) error {
	if req.URLError == nil {
		return nil
	}
	switch req.URLError.Kind {
	case literature.ErrKindURLNotFound,
		literature.ErrKindURLAccessFailed,
		literature.ErrKindParsingFailed:
		return req.URLError
	}
	return nil
}

// exactStage looks up the normalized DOI, then the arXiv id. A hit that is
// itself a failed entity is stale and deleted; a hit that is an unfinished
// placeholder is skipped. Both cases continue as "absent".
func (e *Engine) exactStage(req Request) *Match {
	lookups := []struct {
		kind  string
		value string
		find  func(string) (*literature.Entity, error)
	}{
		{"doi", req.Identifiers.DOI, e.db.FindByDOI},
		{"arxiv", req.Identifiers.ArxivID, e.db.FindByArxivID},
	}

	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		found, err := l.find(l.value)
		if err != nil {
			e.log.Warn("exact-id lookup failed, continuing",
				zap.String("kind", l.kind), zap.Error(err))
			continue
		}
		if found == nil {
			continue
		}
		if lid, ok := e.usable(found); ok {
			return &Match{LID: lid, Stage: StageExactID}
		}
	}
	return nil
}

// aliasURLStage resolves normalized candidate URLs through the alias table.
func (e *Engine) aliasURLStage(req Request) *Match {
	candidates := []struct {
		kind  literature.AliasKind
		value string
	}{
		{literature.AliasURL, normalize.URL(req.Identifiers.URL)},
		{literature.AliasPDFURL, normalize.URL(req.Identifiers.PDFURL)},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		lid, err := e.db.ResolveAlias(c.kind, c.value)
		if err != nil {
			e.log.Warn("alias lookup failed, continuing",
				zap.String("kind", string(c.kind)), zap.Error(err))
			continue
		}
		if lid == "" {
			continue
		}
		found, err := e.db.GetByLID(lid)
		if err != nil || found == nil {
			continue
		}
		if lid, ok := e.usable(found); ok {
			return &Match{LID: lid, Stage: StageAliasURL}
		}
	}
	return nil
}

// inFlightStage reports another task already resolving the same identifier.
// Best-effort: a miss here is resolved later by the repository's unique
// indexes, not prevented.
func (e *Engine) inFlightStage(req Request) *Match {
	checks := []struct{ kind, value string }{
		{"doi", req.Identifiers.DOI},
		{"arxiv", req.Identifiers.ArxivID},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		task, err := e.db.InFlightTask(c.kind, c.value)
		if err != nil {
			e.log.Warn("in-flight check failed, continuing", zap.Error(err))
			continue
		}
		if task != "" && task != req.TaskID {
			return &Match{Stage: StageInFlight, InFlightTask: task}
		}
	}
	return nil
}

// fuzzyStage matches by title similarity and author overlap. Reachable only
// once fetched metadata supplies a real title.
func (e *Engine) fuzzyStage(req Request) *Match {
	if literature.IsPlaceholderTitle(req.Title) {
		return nil
	}

	candidates, err := e.db.FindByFuzzyTitle(req.Title, fuzzyCandidateLimit)
	if err != nil {
		e.log.Warn("fuzzy candidate fetch failed, continuing", zap.Error(err))
		return nil
	}

	for _, cand := range candidates {
		if _, ok := e.usable(&cand); !ok {
			continue
		}
		if cand.QualityScore < minAuthoritativeQuality {
			// low-quality entries are non-authoritative: let the new
			// resolution replace them instead of matching into them
			continue
		}
		sim := normalize.TitleSimilarity(req.Title, cand.Meta.Title)
		if sim < titleThreshold {
			continue
		}
		overlap := normalize.AuthorOverlap(req.Authors, cand.Meta.Authors)
		if overlap < authorThreshold {
			continue
		}
		e.log.Debug("fuzzy duplicate",
			zap.String("lid", cand.LID),
			zap.Float64("title_sim", sim),
			zap.Float64("author_overlap", overlap))
		return &Match{LID: cand.LID, Stage: StageFuzzy}
	}
	return nil
}

// usable decides whether a stored entity counts as a duplicate target.
// Failed entities are stale: deleted here so re-resolution can replace
// them. Placeholders are skipped but kept.
func (e *Engine) usable(found *literature.Entity) (string, bool) {
	if found.IsPlaceholder() {
		return "", false
	}
	if found.OverallStatus() == literature.OverallFailed {
		if err := e.db.DeleteByLID(found.LID); err != nil {
			e.log.Warn("deleting stale failed entity",
				zap.String("lid", found.LID), zap.Error(err))
		}
		return "", false
	}
	return found.LID, true
}
