package waterfall

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/processor"
)

// Mode selects the attempt strategy for one run.
type Mode int

const (
	// ModeStandard tries adapters strictly in priority order and stops on
	// a complete parse (score >= processor.CompleteScore).
	ModeStandard Mode = iota

	// ModeFast fans the eligible adapters out concurrently and stops at
	// the first nonzero-score result, complete or not. Chosen by callers
	// that routed the input by URL pattern and want latency over depth.
	ModeFast
)

const (
	// DefaultMaxAttempts bounds adapters tried per run. Per-adapter
	// timeouts alone leave the worst case unbounded.
	DefaultMaxAttempts = 6

	// fastFanOut bounds concurrent adapter calls in ModeFast.
	fastFanOut = 3
)

// Outcome is the result of one waterfall run: the best single-adapter
// result plus everything accumulated along the way.
type Outcome struct {
	Best      processor.Result
	BestScore float64
	Acc       Accumulator

	// Attempted lists adapter names in the order they were tried.
	Attempted []string

	// Complete reports whether the best score reached a complete parse.
	Complete bool
}

// Executor runs the adapter waterfall. It is safe for concurrent use.
type Executor struct {
	registry    *processor.Registry
	log         *zap.Logger
	maxAttempts int
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts overrides the per-run adapter attempt bound.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// New creates an Executor over the given adapter registry.
func New(registry *processor.Registry, log *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		registry:    registry,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the waterfall over every registered adapter.
func (e *Executor) Run(ctx context.Context, in processor.Input, mode Mode) (Outcome, error) {
	return e.run(ctx, in, e.registry.ByPriority(), mode)
}

// RunSubset executes the waterfall over a curated adapter list, in
// registry priority order.
func (e *Executor) RunSubset(ctx context.Context, in processor.Input, names []string, mode Mode) (Outcome, error) {
	return e.run(ctx, in, e.registry.Subset(names), mode)
}

func (e *Executor) run(ctx context.Context, in processor.Input, procs []processor.Processor, mode Mode) (Outcome, error) {
	if mode == ModeFast {
		return e.runFast(ctx, in, procs)
	}
	return e.runStandard(ctx, in, procs)
}

// runStandard is the sequential path. Each iteration picks the highest-
// priority unused adapter whose capability predicate matches the current
// accumulated state, so identifiers discovered mid-run widen the candidate
// set for later picks.
func (e *Executor) runStandard(ctx context.Context, base processor.Input, procs []processor.Processor) (Outcome, error) {
	out := Outcome{Acc: NewAccumulator(base.Identifiers)}
	used := make(map[string]bool, len(procs))
	attemptErrors := 0

	for len(out.Attempted) < e.maxAttempts {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		cur := out.Acc.Input(base)
		p := nextEligible(procs, used, cur)
		if p == nil {
			break
		}
		used[p.Name()] = true
		out.Attempted = append(out.Attempted, p.Name())

		res := e.attempt(ctx, p, cur)
		score := processor.Score(res, cur.Identifiers)
		if score == 0 {
			if res.Err != "" {
				attemptErrors++
			}
			e.log.Debug("adapter scored zero",
				zap.String("processor", p.Name()),
				zap.String("error", res.Err))
			continue
		}

		out.Acc = out.Acc.Merge(res)
		if score > out.BestScore || (score == out.BestScore && res.Confidence > out.Best.Confidence) {
			out.Best = res
			out.BestScore = score
		}
		if out.BestScore >= processor.CompleteScore {
			out.Complete = true
			break
		}
	}

	return out, e.failure(out, attemptErrors)
}

// runFast fans eligible adapters out in bounded batches and stops at the
// first batch that yields any nonzero-score result, keeping the best of
// that batch.
func (e *Executor) runFast(ctx context.Context, base processor.Input, procs []processor.Processor) (Outcome, error) {
	out := Outcome{Acc: NewAccumulator(base.Identifiers)}
	used := make(map[string]bool, len(procs))
	attemptErrors := 0

	for len(out.Attempted) < e.maxAttempts {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		cur := out.Acc.Input(base)
		batch := nextBatch(procs, used, cur, min(fastFanOut, e.maxAttempts-len(out.Attempted)))
		if len(batch) == 0 {
			break
		}

		type scored struct {
			res   processor.Result
			score float64
		}
		results := make([]scored, len(batch))
		var wg sync.WaitGroup
		for i, p := range batch {
			used[p.Name()] = true
			out.Attempted = append(out.Attempted, p.Name())
			wg.Add(1)
			go func(i int, p processor.Processor) {
				defer wg.Done()
				res := e.attempt(ctx, p, cur)
				results[i] = scored{res: res, score: processor.Score(res, cur.Identifiers)}
			}(i, p)
		}
		wg.Wait()

		// merge in priority order so accumulation order stays deterministic
		for _, r := range results {
			if r.score == 0 {
				if r.res.Err != "" {
					attemptErrors++
				}
				continue
			}
			out.Acc = out.Acc.Merge(r.res)
			if r.score > out.BestScore || (r.score == out.BestScore && r.res.Confidence > out.Best.Confidence) {
				out.Best = r.res
				out.BestScore = r.score
			}
		}
		if out.BestScore > 0 {
			out.Complete = out.BestScore >= processor.CompleteScore
			break
		}
	}

	return out, e.failure(out, attemptErrors)
}

// attempt invokes one adapter, converting panics and errors into failed
// results so a misbehaving adapter never aborts the run.
func (e *Executor) attempt(ctx context.Context, p processor.Processor, in processor.Input) (res processor.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("adapter panicked",
				zap.String("processor", p.Name()),
				zap.Any("panic", r))
			res = processor.Failure(p.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := p.Process(ctx, in)
	if err != nil {
		return processor.Failure(p.Name(), err)
	}
	return res
}

// failure classifies an empty outcome. A run where nothing was even
// attempted is distinct from one where every attempt scored zero.
func (e *Executor) failure(out Outcome, attemptErrors int) error {
	if out.BestScore > 0 {
		return nil
	}
	if len(out.Attempted) == 0 {
		return literature.NewResolveError(literature.ErrKindNoSuitableProcessor, "waterfall",
			fmt.Errorf("no adapter can handle the input"))
	}
	return literature.NewResolveError(literature.ErrKindAllProcessorsFailed, "waterfall",
		fmt.Errorf("%d adapters attempted, %d errored", len(out.Attempted), attemptErrors))
}

func nextEligible(procs []processor.Processor, used map[string]bool, in processor.Input) processor.Processor {
	for _, p := range procs {
		if !used[p.Name()] && p.CanHandle(in) {
			return p
		}
	}
	return nil
}

func nextBatch(procs []processor.Processor, used map[string]bool, in processor.Input, n int) []processor.Processor {
	var batch []processor.Processor
	for _, p := range procs {
		if len(batch) == n {
			break
		}
		if !used[p.Name()] && p.CanHandle(in) {
			batch = append(batch, p)
		}
	}
	return batch
}
