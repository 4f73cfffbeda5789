package flowboard

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/flowboard/flowboard/pkg/api"
)

// GraphBuilder provides a fluent API for assembling graph snapshots, mostly
// for seeding workflows and tests. Nodes are declared under a local ref that
// edges connect by; real node IDs are assigned when the snapshot is built:
//
//	snap, err := flowboard.NewGraph().
//	    Node("trigger", "http_trigger").
//	    Node("notify", "send_email").
//	    Connect("trigger", "notify").
//	    Snapshot()
type GraphBuilder struct {
	nodes []builderNode
	edges []builderEdge
	refs  map[string]bool
}

type builderNode struct {
	ref      string
	spec     api.NodeSpec
	position api.Position
	placed   bool
}

type builderEdge struct {
	source, target, port string
}

// NewGraph creates an empty graph builder.
func NewGraph() *GraphBuilder {
	return &GraphBuilder{refs: make(map[string]bool)}
}

// Node declares a node under a local ref with the given block type.
func (b *GraphBuilder) Node(ref, blockType string) *GraphBuilder {
	return b.NodeWithInput(ref, blockType, nil)
}

// NodeWithInput declares a node with its initial input values.
func (b *GraphBuilder) NodeWithInput(ref, blockType string, input map[string]any) *GraphBuilder {
	if ref == "" {
		panic("flowboard: node ref must not be empty")
	}
	if b.refs[ref] {
		panic(fmt.Sprintf("flowboard: duplicate node ref %q", ref))
	}

	b.refs[ref] = true
	b.nodes = append(b.nodes, builderNode{
		ref:  ref,
		spec: api.NodeSpec{Type: blockType, Input: input},
	})
	return b
}

// At positions the most recently declared node on the canvas.
func (b *GraphBuilder) At(x, y float64) *GraphBuilder {
	if len(b.nodes) == 0 {
		panic("flowboard: At called before any Node")
	}
	n := &b.nodes[len(b.nodes)-1]
	n.position = api.Position{X: x, Y: y}
	n.placed = true
	return b
}

// Connect declares an edge between two refs on the default port.
func (b *GraphBuilder) Connect(sourceRef, targetRef string) *GraphBuilder {
	return b.ConnectPort(sourceRef, targetRef, "")
}

// ConnectPort declares an edge between two refs on a named output port.
func (b *GraphBuilder) ConnectPort(sourceRef, targetRef, port string) *GraphBuilder {
	b.edges = append(b.edges, builderEdge{source: sourceRef, target: targetRef, port: port})
	return b
}

// Snapshot resolves every ref and assembles the snapshot. Unlike ref
// mistakes in Node, an edge naming an undeclared ref is reported as an
// error because builders are often fed from data, not literals.
func (b *GraphBuilder) Snapshot() (api.GraphSnapshot, error) {
	ids := make(map[string]string, len(b.nodes))

	snap := api.GraphSnapshot{
		Nodes: make([]api.Node, 0, len(b.nodes)),
		Edges: make([]api.Edge, 0, len(b.edges)),
	}
	for _, bn := range b.nodes {
		id := uuid.NewString()
		ids[bn.ref] = id
		node := api.Node{
			ID:    id,
			Type:  bn.spec.Type,
			Input: bn.spec.Input,
		}
		if bn.placed {
			node.Position = bn.position
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	for _, be := range b.edges {
		source, ok := ids[be.source]
		if !ok {
			return api.GraphSnapshot{}, fmt.Errorf("%w: edge source ref %q", api.ErrInvalidReference, be.source)
		}
		target, ok := ids[be.target]
		if !ok {
			return api.GraphSnapshot{}, fmt.Errorf("%w: edge target ref %q", api.ErrInvalidReference, be.target)
		}
		snap.Edges = append(snap.Edges, api.Edge{
			ID:     uuid.NewString(),
			Source: source,
			Target: target,
			Port:   be.port,
		})
	}
	return snap, nil
}

// MustSnapshot is like Snapshot but panics on error.
// Useful for fixtures built from literals.
func (b *GraphBuilder) MustSnapshot() api.GraphSnapshot {
	snap, err := b.Snapshot()
	if err != nil {
		panic(err)
	}
	return snap
}
