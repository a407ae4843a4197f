package processor

import (
	"fmt"
	"sort"
)

// Registry is an explicitly constructed catalog of metadata-source adapters,
// ordered by priority. It is immutable after construction and injected into
// the waterfall executor at startup; there is no process-wide registry.
type Registry struct {
	ordered []Processor
	byName  map[string]Processor
}

// NewRegistry builds a registry from the given adapters. Adapters with equal
// priority keep their registration order. Duplicate names are rejected.
func NewRegistry(procs ...Processor) (*Registry, error) {
	r := &Registry{
		ordered: make([]Processor, len(procs)),
		byName:  make(map[string]Processor, len(procs)),
	}
	copy(r.ordered, procs)

	for _, p := range procs {
		if _, dup := r.byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate processor name %q", p.Name())
		}
		r.byName[p.Name()] = p
	}

	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority() < r.ordered[j].Priority()
	})
	return r, nil
}

// ByPriority returns all adapters in priority order (lowest first).
func (r *Registry) ByPriority() []Processor {
	out := make([]Processor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get returns the named adapter, or nil if unknown.
func (r *Registry) Get(name string) Processor {
	return r.byName[name]
}

// Subset returns the named adapters in priority order, skipping unknown
// names. Used for curated waterfall runs.
func (r *Registry) Subset(names []string) []Processor {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Processor
	for _, p := range r.ordered {
		if want[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// Names returns all adapter names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.ordered)
}
