package graph

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// Neighbor is one adjacent node together with the connecting edge type.
type Neighbor struct {
	Node *Node    `json:"node"`
	Type EdgeType `json:"type"`
}

// Outgoing returns the nodes id points to, ordered by node ID.
func (s *Structure) Outgoing(id string) ([]Neighbor, error) {
	adj, err := s.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency map: %w", err)
	}
	edges, ok := adj[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrVertexNotFound, id)
	}
	return s.neighbors(edges, func(e graph.Edge[string]) string { return e.Target })
}

// Incoming returns the nodes pointing at id, ordered by node ID.
func (s *Structure) Incoming(id string) ([]Neighbor, error) {
	pred, err := s.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read predecessor map: %w", err)
	}
	edges, ok := pred[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrVertexNotFound, id)
	}
	return s.neighbors(edges, func(e graph.Edge[string]) string { return e.Source })
}

func (s *Structure) neighbors(edges map[string]graph.Edge[string], end func(graph.Edge[string]) string) ([]Neighbor, error) {
	out := make([]Neighbor, 0, len(edges))
	for _, key := range sortedIDs(edges) {
		e := edges[key]
		n, err := s.g.Vertex(end(e))
		if err != nil {
			return nil, err
		}
		out = append(out, Neighbor{Node: n, Type: EdgeType(e.Properties.Attributes["label"])})
	}
	return out, nil
}

// Reachable returns every node reachable from id in breadth-first order,
// excluding id itself.
func (s *Structure) Reachable(id string) ([]*Node, error) {
	var out []*Node
	err := graph.BFS(s.g, id, func(visited string) bool {
		if visited == id {
			return false
		}
		if n, err := s.g.Vertex(visited); err == nil {
			out = append(out, n)
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse from %s: %w", id, err)
	}
	return out, nil
}

// WriteDOT renders the graph in Graphviz DOT format.
func (s *Structure) WriteDOT(w io.Writer) error {
	if err := draw.DOT(s.g, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return fmt.Errorf("failed to render DOT: %w", err)
	}
	return nil
}
