package citation

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
)

const (
	MinGraphDepth = 1
	MaxGraphDepth = 5
)

// GraphNode is one node of a citation-graph query result.
type GraphNode struct {
	LID        string `json:"lid"`
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	IsCenter   bool   `json:"is_center"`
	Unresolved bool   `json:"unresolved,omitempty"`
}

// GraphEdge is one edge of a citation-graph query result.
type GraphEdge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Kind        string  `json:"kind"`
	Confidence  float64 `json:"confidence"`
	MatchSource string  `json:"match_source,omitempty"`
}

// Graph is a deduplicated node and edge set around a group of center LIDs.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphQuery bounds a neighborhood query over the citation graph.
type GraphQuery struct {
	Centers       []string
	MaxDepth      int
	MinConfidence float64
}

// QueryGraph walks the citation graph breadth-first from the center LIDs,
// up to MaxDepth hops, keeping only edges at or above MinConfidence. Nodes
// and edges are deduplicated by identity. Edge targets without a stored
// entity are reported as unresolved nodes.
func (r *Resolver) QueryGraph(q GraphQuery) (*Graph, error) {
	if len(q.Centers) == 0 {
		return nil, fmt.Errorf("graph query needs at least one center")
	}
	if q.MaxDepth < MinGraphDepth || q.MaxDepth > MaxGraphDepth {
		return nil, fmt.Errorf("max depth %d out of range [%d, %d]", q.MaxDepth, MinGraphDepth, MaxGraphDepth)
	}
	if q.MinConfidence < 0 || q.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence %.2f out of range [0, 1]", q.MinConfidence)
	}

	centers := make(map[string]bool, len(q.Centers))
	for _, lid := range q.Centers {
		centers[lid] = true
	}

	seen := make(map[string]bool)
	edges := make(map[string]literature.CitationEdge)
	frontier := append([]string(nil), q.Centers...)

	for depth := 0; depth < q.MaxDepth && len(frontier) > 0; depth++ {
		found, err := r.db.EdgesTouching(frontier, q.MinConfidence)
		if err != nil {
			return nil, fmt.Errorf("expanding citation graph: %w", err)
		}
		for _, lid := range frontier {
			seen[lid] = true
		}

		var next []string
		for _, e := range found {
			key := e.FromLID + "\x00" + e.ToLID + "\x00" + e.Kind
			if _, dup := edges[key]; dup {
				continue
			}
			edges[key] = e
			for _, lid := range []string{e.FromLID, e.ToLID} {
				if !seen[lid] {
					seen[lid] = true
					next = append(next, lid)
				}
			}
		}
		frontier = next
	}

	g := &Graph{}
	for lid := range seen {
		g.Nodes = append(g.Nodes, r.graphNode(lid, centers[lid]))
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, GraphEdge{
			From:        e.FromLID,
			To:          e.ToLID,
			Kind:        e.Kind,
			Confidence:  e.Confidence,
			MatchSource: e.MatchSource,
		})
	}

	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].LID < g.Nodes[j].LID })
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g, nil
}

func (r *Resolver) graphNode(lid string, isCenter bool) GraphNode {
	if e, err := r.db.GetByLID(lid); err == nil && e != nil {
		return GraphNode{LID: lid, Title: e.Meta.Title, Year: e.Meta.Year, IsCenter: isCenter}
	}
	if n, err := r.db.GetUnresolved(lid); err == nil && n != nil {
		return GraphNode{LID: lid, Title: n.Title, Year: n.Year, IsCenter: isCenter, Unresolved: true}
	}
	r.log.Debug("graph node without stored record", zap.String("lid", lid))
	return GraphNode{LID: lid, IsCenter: isCenter, Unresolved: true}
}
