// Package processor defines the metadata-source adapter contract, the
// adapter registry, and the parsing-score heuristic used by the waterfall
// executor to judge adapter output.
package processor

import (
	"context"

	"github.com/litgraph/litgraph/internal/literature"
)

// Input is the identifier/metadata state an adapter is invoked with. The
// waterfall executor updates it between attempts, so a DOI discovered by one
// adapter lets a later adapter do an exact lookup.
type Input struct {
	Identifiers literature.IdentifierSet
	Title       string
	AuthorHints []string
}

// Result is one adapter's output. It is derived, never persisted directly.
type Result struct {
	// Success reports whether the adapter produced any usable output.
	Success bool

	// Metadata is the translated canonical metadata, nil on failure.
	Metadata *literature.Metadata

	// Identifiers holds identifiers discovered during this call,
	// normalized. May include kinds already known to the caller.
	Identifiers literature.IdentifierSet

	// References is the parsed raw reference list, when the source
	// provides one.
	References []literature.RawReference

	// Source names the adapter that produced the result.
	Source string

	// Confidence is the adapter's own confidence in [0,1].
	Confidence float64

	// Err describes the failure when Success is false.
	Err string
}

// Failure builds a failed Result for the named source.
func Failure(source string, err error) Result {
	r := Result{Source: source}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// Processor is the seam across which the engine stays agnostic to how a
// metadata source is implemented. Lower priority values are tried first.
type Processor interface {
	Name() string
	Priority() int

	// CanHandle reports whether the adapter can act on the current state.
	CanHandle(in Input) bool

	// Process fetches and translates metadata. Implementations respect
	// context cancellation, apply their own rate limiting, and translate
	// source responses into literature.Metadata at the boundary.
	Process(ctx context.Context, in Input) (Result, error)
}
