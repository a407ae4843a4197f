// Package pipeline orchestrates one resolution request end to end:
// normalization, pre-fetch dedup, placeholder creation, the metadata
// waterfall, post-fetch dedup, identity assignment, and event dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/dedup"
	"github.com/litgraph/litgraph/internal/hooks"
	"github.com/litgraph/litgraph/internal/identity"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	"github.com/litgraph/litgraph/internal/pdfmeta"
	"github.com/litgraph/litgraph/internal/processor"
	"github.com/litgraph/litgraph/internal/store"
	"github.com/litgraph/litgraph/internal/waterfall"
)

const (
	// DefaultTimeout bounds one whole resolution. The waterfall itself
	// carries no deadline, so the bound lives here.
	DefaultTimeout = 90 * time.Second

	// finalizeRetries bounds LID-suffix regeneration on commit collisions.
	finalizeRetries = 3
)

// defaultFastHosts routes preprint servers to the concurrent fan-out path.
// Their URLs carry an exact identifier, so source ordering buys nothing.
var defaultFastHosts = []string{"arxiv.org"}

// Pipeline wires the resolution stages together. It is safe for
// concurrent use.
type Pipeline struct {
	db        *store.DB
	norm      *normalize.Normalizer
	dedup     *dedup.Engine
	exec      *waterfall.Executor
	hooks     *hooks.Dispatcher
	pdf       *pdfmeta.Extractor
	log       *zap.Logger
	fastHosts map[string]bool
	timeout   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout overrides the per-resolution deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithFastHosts replaces the URL hosts routed to the fan-out path.
func WithFastHosts(hosts []string) Option {
	return func(p *Pipeline) {
		p.fastHosts = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			p.fastHosts[strings.ToLower(h)] = true
		}
	}
}

// WithPDFExtractor replaces the PDF identifier scanner.
func WithPDFExtractor(x *pdfmeta.Extractor) Option {
	return func(p *Pipeline) { p.pdf = x }
}

// New creates a Pipeline over the given repository, waterfall executor,
// and hook dispatcher.
func New(db *store.DB, exec *waterfall.Executor, dispatcher *hooks.Dispatcher, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		db:      db,
		norm:    normalize.NewNormalizer(nil),
		dedup:   dedup.New(db, log),
		exec:    exec,
		hooks:   dispatcher,
		pdf:     pdfmeta.New(),
		log:     log,
		timeout: DefaultTimeout,
	}
	WithFastHosts(defaultFastHosts)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome reports how one resolution request ended.
type Outcome struct {
	LID     string
	TaskID  string
	Created bool

	// Duplicate is set when an existing entity absorbed the request.
	Duplicate      bool
	DuplicateStage string

	// InFlightTask is set when another task is resolving the same input.
	InFlightTask string

	Status literature.OverallStatus
	Entity *literature.Entity
}

// Resolve runs one request through the full lifecycle. A duplicate outcome
// is not an error; the returned error covers only inputs that cannot
// produce an entity.
func (p *Pipeline) Resolve(ctx context.Context, raw literature.RawInput) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if raw.IsEmpty() {
		return nil, literature.NewResolveError(literature.ErrKindInvalidData, "normalize",
			errors.New("empty resolution request"))
	}

	taskID := uuid.NewString()
	log := p.log.With(zap.String("task", taskID))

	ids, primary := p.norm.Normalize(raw)
	urlErr := p.scanPDF(ctx, &ids, raw, log)

	// Pre-fetch pass: cheap checks on identifiers alone.
	match, err := p.dedup.Resolve(dedup.Request{
		Identifiers: ids,
		Title:       raw.Title,
		TaskID:      taskID,
		URLError:    urlErr,
	})
	if err != nil {
		return nil, err
	}
	if match != nil {
		return p.duplicateOutcome(ctx, taskID, ids, match), nil
	}

	release := p.markInFlight(ids, taskID, log)
	defer release()

	placeholder, err := p.createPlaceholder(raw, ids)
	if err != nil {
		// A identifier collision here means a concurrent task committed
		// first; surface its entity as the duplicate.
		if store.IsUniqueViolation(err) {
			if m := p.lookupCommitted(ids); m != nil {
				return p.duplicateOutcome(ctx, taskID, ids, m), nil
			}
		}
		return nil, fmt.Errorf("creating placeholder: %w", err)
	}

	out, err := p.exec.Run(ctx, processor.Input{
		Identifiers: ids,
		Title:       strings.TrimSpace(raw.Title),
		AuthorHints: raw.AuthorHints,
	}, p.mode(primary, ids))
	if err != nil {
		p.recordFailure(placeholder.LID, err, log)
		return nil, err
	}

	// Post-fetch pass: thorough checks with fetched title and authors.
	match, _ = p.dedup.Resolve(dedup.Request{
		Identifiers: out.Acc.Identifiers,
		Title:       out.Acc.Meta.Title,
		Authors:     out.Acc.Meta.Authors,
		TaskID:      taskID,
	})
	if match != nil && match.LID != placeholder.LID {
		if err := p.db.DeleteByLID(placeholder.LID); err != nil {
			log.Warn("discarding placeholder after duplicate", zap.Error(err))
		}
		return p.duplicateOutcome(ctx, taskID, out.Acc.Identifiers, match), nil
	}

	final, err := p.finalize(placeholder.LID, raw, out)
	if err != nil {
		if m := p.lookupCommitted(out.Acc.Identifiers); m != nil {
			if derr := p.db.DeleteByLID(placeholder.LID); derr != nil {
				log.Warn("discarding placeholder after commit race", zap.Error(derr))
			}
			return p.duplicateOutcome(ctx, taskID, out.Acc.Identifiers, m), nil
		}
		p.recordFailure(placeholder.LID, err, log)
		return nil, err
	}

	// Citation resolution depends on committed metadata, so the creation
	// event fires strictly after the metadata event.
	p.hooks.Dispatch(ctx, hooks.Event{Kind: hooks.MetadataUpdated, Entity: final, TaskID: taskID})
	p.hooks.Dispatch(ctx, hooks.Event{Kind: hooks.LiteratureCreated, Entity: final, TaskID: taskID})

	log.Info("resolution completed",
		zap.String("lid", final.LID),
		zap.String("status", string(final.Components.Overall())),
		zap.Strings("sources", out.Acc.Sources))

	return &Outcome{
		LID:     final.LID,
		TaskID:  taskID,
		Created: true,
		Status:  final.Components.Overall(),
		Entity:  final,
	}, nil
}

// scanPDF recovers identifiers from a linked PDF when the request carries
// no authoritative id. A fetch or parse failure becomes the URL-gate error
// for the dedup pass.
func (p *Pipeline) scanPDF(ctx context.Context, ids *literature.IdentifierSet, raw literature.RawInput, log *zap.Logger) *literature.ResolveError {
	if p.pdf == nil || ids.HasAuthoritative() || raw.PDFURL == "" {
		return nil
	}

	ext, err := p.pdf.ExtractURL(ctx, raw.PDFURL)
	if err != nil {
		kind := literature.ErrKindURLAccessFailed
		if errors.Is(err, processor.ErrNotFound) {
			kind = literature.ErrKindURLNotFound
		}
		log.Warn("pdf identifier scan failed", zap.String("url", raw.PDFURL), zap.Error(err))
		return literature.NewResolveError(kind, "pdf-scan", err)
	}

	if ext.DOI != "" && ids.DOI == "" {
		ids.DOI = normalize.DOI(ext.DOI)
	}
	if ext.ArxivID != "" && ids.ArxivID == "" {
		ids.ArxivID, _ = normalize.ArxivID(ext.ArxivID)
	}
	if ext.IsEmpty() {
		return literature.NewResolveError(literature.ErrKindParsingFailed, "pdf-scan",
			errors.New("no identifiers or title in document"))
	}
	return nil
}

// markInFlight advertises the task on its authoritative identifiers and
// returns the matching release func. Best-effort on both sides.
func (p *Pipeline) markInFlight(ids literature.IdentifierSet, taskID string, log *zap.Logger) func() {
	marks := [][2]string{}
	for _, c := range [][2]string{{"doi", ids.DOI}, {"arxiv", ids.ArxivID}} {
		if c[1] == "" {
			continue
		}
		acquired, err := p.db.MarkInFlight(c[0], c[1], taskID)
		if err != nil {
			log.Warn("in-flight mark failed", zap.String("kind", c[0]), zap.Error(err))
			continue
		}
		if acquired {
			marks = append(marks, c)
		}
	}
	return func() {
		for _, c := range marks {
			if err := p.db.ClearInFlight(c[0], c[1], taskID); err != nil {
				log.Warn("in-flight clear failed", zap.String("kind", c[0]), zap.Error(err))
			}
		}
	}
}

// createPlaceholder commits a provisional entity so concurrent requests
// and crashes leave a visible record. The fallback LID format is used
// until real metadata can drive the primary format.
func (p *Pipeline) createPlaceholder(raw literature.RawInput, ids literature.IdentifierSet) (*literature.Entity, error) {
	components := literature.NewComponentSet().
		Set(literature.ComponentMetadata, literature.ComponentStatus{Status: literature.StatusProcessing, Stage: "waterfall"})

	// The hash input includes the identifiers so two concurrent requests
	// for different papers without titles get distinct provisional LIDs.
	seed := strings.Join([]string{raw.Title, ids.DOI, ids.ArxivID, ids.URL, ids.PDFURL}, "|")

	e := &literature.Entity{
		LID:           identity.Fallback(literature.Metadata{Title: seed}),
		Identifiers:   ids,
		SourcePageURL: raw.URL,
		PDFURL:        ids.PDFURL,
		Components:    components,
	}
	if err := p.db.CreatePlaceholder(e); err != nil {
		return nil, err
	}
	return e, nil
}

// finalize assigns the content-derived LID and commits the fetched state,
// regenerating the random suffix on LID collisions.
func (p *Pipeline) finalize(placeholderLID string, raw literature.RawInput, out waterfall.Outcome) (*literature.Entity, error) {
	meta := out.Acc.Meta

	metaStatus := literature.ComponentStatus{Status: literature.StatusPartial, Stage: "waterfall"}
	if out.Complete {
		metaStatus.Status = literature.StatusSuccess
	}
	refStatus := literature.ComponentStatus{Status: literature.StatusFailed, Stage: "waterfall", Error: "no source provided references"}
	if len(out.Acc.References) > 0 {
		refStatus = literature.ComponentStatus{Status: literature.StatusSuccess, Stage: "waterfall"}
	}

	final := &literature.Entity{
		LID:           identity.Generate(meta),
		Identifiers:   out.Acc.Identifiers,
		Meta:          meta,
		PDFURL:        out.Acc.Identifiers.PDFURL,
		SourcePageURL: raw.URL,
		RawReferences: out.Acc.References,
		Components: literature.NewComponentSet().
			Set(literature.ComponentMetadata, metaStatus).
			Set(literature.ComponentReferences, refStatus),
		QualityScore: literature.QualityScore(meta, out.Acc.Identifiers),
	}

	var err error
	for i := 0; i <= finalizeRetries; i++ {
		err = p.db.Finalize(placeholderLID, final)
		if err == nil {
			return final, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("committing entity: %w", err)
		}
		final.LID = identity.Regenerate(final.LID)
	}
	return nil, fmt.Errorf("committing entity: %w", err)
}

// recordFailure marks the placeholder's metadata component failed so the
// entity reads as failed and a later request can replace it.
func (p *Pipeline) recordFailure(lid string, cause error, log *zap.Logger) {
	cs := literature.ComponentStatus{
		Status: literature.StatusFailed,
		Stage:  "waterfall",
		Error:  cause.Error(),
	}
	if err := p.db.UpdateComponentStatus(lid, literature.ComponentMetadata, cs); err != nil {
		log.Warn("recording failure state", zap.String("lid", lid), zap.Error(err))
	}
}

// duplicateOutcome reports a match and lets the duplicate_found handlers
// alias the incoming identifiers onto the surviving entity.
func (p *Pipeline) duplicateOutcome(ctx context.Context, taskID string, ids literature.IdentifierSet, m *dedup.Match) *Outcome {
	o := &Outcome{
		LID:            m.LID,
		TaskID:         taskID,
		Duplicate:      true,
		DuplicateStage: m.Stage,
		InFlightTask:   m.InFlightTask,
	}
	if m.LID == "" {
		return o
	}

	p.hooks.Dispatch(ctx, hooks.Event{
		Kind:         hooks.DuplicateFound,
		Entity:       &literature.Entity{Identifiers: ids},
		DuplicateLID: m.LID,
		Stage:        m.Stage,
		TaskID:       taskID,
	})

	if e, err := p.db.GetByLID(m.LID); err == nil && e != nil {
		o.Entity = e
		o.Status = e.Components.Overall()
	}
	return o
}

// lookupCommitted finds the entity another task committed for the same
// authoritative identifiers.
func (p *Pipeline) lookupCommitted(ids literature.IdentifierSet) *dedup.Match {
	if ids.DOI != "" {
		if e, err := p.db.FindByDOI(ids.DOI); err == nil && e != nil {
			return &dedup.Match{LID: e.LID, Stage: dedup.StageExactID}
		}
	}
	if ids.ArxivID != "" {
		if e, err := p.db.FindByArxivID(ids.ArxivID); err == nil && e != nil {
			return &dedup.Match{LID: e.LID, Stage: dedup.StageExactID}
		}
	}
	return nil
}

// mode routes preprint-server URLs to the fan-out path; everything else
// runs the strict priority order.
func (p *Pipeline) mode(primary literature.PrimaryType, ids literature.IdentifierSet) waterfall.Mode {
	if primary != literature.PrimaryURL && primary != literature.PrimaryArxiv {
		return waterfall.ModeStandard
	}
	for _, raw := range []string{ids.URL, ids.PDFURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse("https://" + raw); err == nil {
			host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
			if p.fastHosts[host] {
				return waterfall.ModeFast
			}
		}
	}
	return waterfall.ModeStandard
}
