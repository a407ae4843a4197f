package literature

import (
	"errors"
	"time"
)

// Relationship kinds for citation edges.
const (
	RelationCites = "cites"
)

// Match sources recorded on citation edges.
const (
	MatchExactID    = "exact-id"
	MatchAlias      = "alias"
	MatchFuzzy      = "fuzzy"
	MatchUnresolved = "unresolved"
)

// CitationEdge is a directed relationship between two literature entities.
// Identity is the (FromLID, ToLID, Kind) tuple; upserts are idempotent.
type CitationEdge struct {
	FromLID     string            `json:"from_lid"`
	ToLID       string            `json:"to_lid"`
	Kind        string            `json:"kind"`
	Confidence  float64           `json:"confidence"`
	MatchSource string            `json:"match_source,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Verified    bool              `json:"verified"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
}

// Validation errors.
var (
	ErrEmptyFromLID = errors.New("from_lid is required")
	ErrEmptyToLID   = errors.New("to_lid is required")
	ErrSelfEdge     = errors.New("from_lid and to_lid cannot be the same")
	ErrBadEdgeConf  = errors.New("confidence must be in [0,1]")
)

// ValidateForCreate validates an edge before it is written.
func (e *CitationEdge) ValidateForCreate() error {
	if e.FromLID == "" {
		return ErrEmptyFromLID
	}
	if e.ToLID == "" {
		return ErrEmptyToLID
	}
	if e.FromLID == e.ToLID {
		return ErrSelfEdge
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ErrBadEdgeConf
	}
	if e.Kind == "" {
		e.Kind = RelationCites
	}
	return nil
}
