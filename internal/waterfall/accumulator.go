// Package waterfall runs the priority-ordered metadata-source attempts for
// one resolution request: each adapter may satisfy the request outright or
// contribute partial information that later adapters build on.
package waterfall

import (
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/processor"
)

// Accumulator is the metadata and identifier state gathered across adapter
// attempts. It is a value type: Merge returns a new Accumulator and never
// mutates its receiver, so callers can hold on to intermediate states.
type Accumulator struct {
	Meta        literature.Metadata
	Identifiers literature.IdentifierSet
	References  []literature.RawReference

	// Sources lists the adapters that contributed, in merge order.
	Sources []string

	// Alternatives retains values that lost a merge comparison, keyed by
	// field name. Losing values are kept, not dropped.
	Alternatives map[string][]string

	// fieldConf records the confidence of the contribution currently
	// holding each scalar field, for the equal-length tiebreak.
	fieldConf map[string]float64
}

// NewAccumulator starts an accumulator from the caller's identifier state.
func NewAccumulator(ids literature.IdentifierSet) Accumulator {
	return Accumulator{Identifiers: ids}
}

// IsEmpty reports whether no adapter has contributed metadata yet.
func (a Accumulator) IsEmpty() bool {
	return len(a.Sources) == 0
}

// Merge folds one adapter result into the accumulator and returns the new
// state. A field already present is replaced only when the incoming value
// is judged better: longer string, longer list, or equal length with higher
// adapter confidence. The displaced or rejected value is retained under
// Alternatives.
func (a Accumulator) Merge(res processor.Result) Accumulator {
	if !res.Success || res.Metadata == nil {
		return a
	}
	next := a.clone()
	in := *res.Metadata

	next.mergeField("title", &next.Meta.Title, in.Title, res.Confidence)
	next.mergeField("abstract", &next.Meta.Abstract, in.Abstract, res.Confidence)
	next.mergeField("venue", &next.Meta.Venue, in.Venue, res.Confidence)

	if len(in.Authors) > len(next.Meta.Authors) {
		next.Meta.Authors = append([]literature.Author(nil), in.Authors...)
	}
	if len(in.Keywords) > len(next.Meta.Keywords) {
		next.Meta.Keywords = append([]string(nil), in.Keywords...)
	}
	if literature.PlausibleYear(in.Year) && !literature.PlausibleYear(next.Meta.Year) {
		next.Meta.Year = in.Year
	}
	for k, v := range in.ExternalIDs {
		if _, ok := next.Meta.ExternalIDs[k]; !ok {
			next.Meta.ExternalIDs[k] = v
		}
	}

	if len(res.References) > len(next.References) {
		next.References = append([]literature.RawReference(nil), res.References...)
	}

	next.Identifiers = next.Identifiers.Merge(res.Identifiers)
	next.Sources = append(next.Sources, res.Source)
	return next
}

// Input builds the adapter input reflecting the current accumulated state,
// so a DOI discovered by one adapter enables exact lookups downstream.
func (a Accumulator) Input(base processor.Input) processor.Input {
	in := processor.Input{
		Identifiers: base.Identifiers.Merge(a.Identifiers),
		Title:       base.Title,
		AuthorHints: base.AuthorHints,
	}
	if !literature.IsPlaceholderTitle(a.Meta.Title) {
		in.Title = a.Meta.Title
	}
	return in
}

func (a Accumulator) mergeField(name string, cur *string, val string, conf float64) {
	if val == "" {
		return
	}
	switch {
	case *cur == "":
		*cur = val
		a.fieldConf[name] = conf
	case len(val) > len(*cur),
		len(val) == len(*cur) && conf > a.fieldConf[name]:
		a.Alternatives[name] = append(a.Alternatives[name], *cur)
		*cur = val
		a.fieldConf[name] = conf
	case val != *cur:
		a.Alternatives[name] = append(a.Alternatives[name], val)
	}
}

// clone copies the accumulator's shared structures so Merge stays pure.
func (a Accumulator) clone() Accumulator {
	next := a
	next.Meta.Authors = append([]literature.Author(nil), a.Meta.Authors...)
	next.Meta.Keywords = append([]string(nil), a.Meta.Keywords...)
	next.Meta.ExternalIDs = make(map[string]string, len(a.Meta.ExternalIDs))
	for k, v := range a.Meta.ExternalIDs {
		next.Meta.ExternalIDs[k] = v
	}
	next.References = append([]literature.RawReference(nil), a.References...)
	next.Sources = append([]string(nil), a.Sources...)
	next.Alternatives = make(map[string][]string, len(a.Alternatives))
	for k, v := range a.Alternatives {
		next.Alternatives[k] = append([]string(nil), v...)
	}
	next.fieldConf = make(map[string]float64, len(a.fieldConf))
	for k, v := range a.fieldConf {
		next.fieldConf[k] = v
	}
	return next
}
