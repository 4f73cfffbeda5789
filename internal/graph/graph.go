// Package graph owns the in-memory workflow graph: nodes, edges, and their
// adjacency. It is pure data plus local integrity checks; structural
// validation (cycles, orphans) lives in internal/validate and runs lazily at
// save time.
package graph

import (
	"maps"

	"github.com/google/uuid"

	"github.com/flowboard/flowboard/pkg/api"
)

// Options configures per-graph policies.
type Options struct {
	// AllowDuplicateEdges permits multiple edges with the same
	// (source, target, port) triple. Default false: such edges are rejected
	// as duplicates. Edges that differ in port are always permitted.
	AllowDuplicateEdges bool
}

// Graph holds nodes and edges with stable insertion order. It is not
// goroutine-safe; the owning session serializes access.
type Graph struct {
	opts Options

	nodes     map[string]*api.Node
	nodeOrder []string

	edges     map[string]*api.Edge
	edgeOrder []string
}

// New returns an empty graph.
func New(opts Options) *Graph {
	return &Graph{
		opts:  opts,
		nodes: make(map[string]*api.Node),
		edges: make(map[string]*api.Edge),
	}
}

// Load rebuilds a graph from a snapshot, preserving its order. Edges whose
// endpoints are missing from the snapshot are kept as-is; they surface later
// as dangling-edge validation issues rather than being silently dropped.
func Load(snap api.GraphSnapshot, opts Options) *Graph {
	g := New(opts)
	for _, n := range snap.Nodes {
		node := n
		node.Input = maps.Clone(n.Input)
		g.nodes[node.ID] = &node
		g.nodeOrder = append(g.nodeOrder, node.ID)
	}
	for _, e := range snap.Edges {
		edge := e
		g.edges[edge.ID] = &edge
		g.edgeOrder = append(g.edgeOrder, edge.ID)
	}
	return g
}

// AddNode assigns a fresh id and inserts the node. Insertion alone cannot
// violate any constraint, so it never fails.
func (g *Graph) AddNode(spec api.NodeSpec) api.Node {
	node := &api.Node{
		ID:       uuid.NewString(),
		Type:     spec.Type,
		Input:    maps.Clone(spec.Input),
		Position: spec.Position,
	}
	g.nodes[node.ID] = node
	g.nodeOrder = append(g.nodeOrder, node.ID)
	return *node
}

// RemoveNode removes the node and cascades removal of every edge touching it.
// It returns the ids of the removed edges in insertion order. Removing an
// absent id is a no-op.
func (g *Graph) RemoveNode(id string) (removed bool, cascaded []string) {
	if _, ok := g.nodes[id]; !ok {
		return false, nil
	}
	delete(g.nodes, id)
	g.nodeOrder = remove(g.nodeOrder, id)

	for _, edgeID := range g.edgeOrder {
		e := g.edges[edgeID]
		if e.Source == id || e.Target == id {
			cascaded = append(cascaded, edgeID)
		}
	}
	for _, edgeID := range cascaded {
		delete(g.edges, edgeID)
		g.edgeOrder = remove(g.edgeOrder, edgeID)
	}
	return true, cascaded
}

// UpdateNode merges patch into the node's input and position.
func (g *Graph) UpdateNode(id string, patch api.NodePatch) (api.Node, error) {
	node, ok := g.nodes[id]
	if !ok {
		return api.Node{}, api.ErrNotFound
	}
	if patch.Input != nil {
		if node.Input == nil {
			node.Input = make(map[string]any, len(patch.Input))
		}
		maps.Copy(node.Input, patch.Input)
	}
	if patch.Position != nil {
		node.Position = *patch.Position
	}
	return copyNode(node), nil
}

// AddEdge connects source to target on the given port. Both endpoints must
// exist; cycle-freedom is deliberately not enforced here so that editing can
// pass through invalid intermediate states.
func (g *Graph) AddEdge(source, target, port string) (api.Edge, error) {
	if _, ok := g.nodes[source]; !ok {
		return api.Edge{}, api.ErrInvalidReference
	}
	if _, ok := g.nodes[target]; !ok {
		return api.Edge{}, api.ErrInvalidReference
	}
	if !g.opts.AllowDuplicateEdges {
		for _, id := range g.edgeOrder {
			e := g.edges[id]
			if e.Source == source && e.Target == target && e.Port == port {
				return api.Edge{}, api.ErrDuplicateEdge
			}
		}
	}
	edge := &api.Edge{
		ID:     uuid.NewString(),
		Source: source,
		Target: target,
		Port:   port,
	}
	g.edges[edge.ID] = edge
	g.edgeOrder = append(g.edgeOrder, edge.ID)
	return *edge, nil
}

// RemoveEdge removes the edge; removing an absent id is a no-op.
func (g *Graph) RemoveEdge(id string) bool {
	if _, ok := g.edges[id]; !ok {
		return false
	}
	delete(g.edges, id)
	g.edgeOrder = remove(g.edgeOrder, id)
	return true
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (api.Node, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return api.Node{}, false
	}
	return copyNode(node), true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []api.Node {
	out := make([]api.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, copyNode(g.nodes[id]))
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []api.Edge {
	out := make([]api.Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// Snapshot returns an immutable copy of the whole graph.
func (g *Graph) Snapshot() api.GraphSnapshot {
	return api.GraphSnapshot{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}

func copyNode(n *api.Node) api.Node {
	out := *n
	out.Input = maps.Clone(n.Input)
	return out
}

func remove(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
