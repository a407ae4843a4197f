package literature

import "fmt"

// ErrorKind classifies pipeline failures for user-visible reporting.
type ErrorKind string

const (
	// ErrKindURLNotFound: remote resource confirmed absent (HTTP 404 class).
	ErrKindURLNotFound ErrorKind = "url_not_found"

	// ErrKindURLAccessFailed: transient network failure or timeout.
	ErrKindURLAccessFailed ErrorKind = "url_access_failed"

	// ErrKindParsingFailed: resource reachable but no usable content extracted.
	ErrKindParsingFailed ErrorKind = "parsing_failed"

	// ErrKindInvalidData: malformed input to the pipeline itself.
	ErrKindInvalidData ErrorKind = "invalid_data"

	// ErrKindNoSuitableProcessor: no adapter could even attempt the input.
	ErrKindNoSuitableProcessor ErrorKind = "no_suitable_processor"

	// ErrKindAllProcessorsFailed: every attempted adapter returned zero score.
	ErrKindAllProcessorsFailed ErrorKind = "all_processors_failed"
)

// ResolveError is a classified pipeline failure carrying the stage label
// shown to users alongside the error kind.
type ResolveError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Stage)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ResolveError) Unwrap() error { return e.Err }

// NewResolveError builds a classified failure for the given stage.
func NewResolveError(kind ErrorKind, stage string, err error) *ResolveError {
	return &ResolveError{Kind: kind, Stage: stage, Err: err}
}
