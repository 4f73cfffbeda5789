package api

// Position is a 2D canvas coordinate. The engine stores it verbatim; layout
// interpretation belongs to the renderer.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single block placed on the canvas. Type selects the block's
// behavior from the catalog; Input configures it and its shape depends on Type.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Input    map[string]any `json:"input,omitempty"`
	Position Position       `json:"position"`
}

// Edge is a directed connection between two nodes. Port distinguishes multiple
// outputs from the same source; two edges on the same (source, target) pair are
// duplicates unless their ports differ.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Port   string `json:"port,omitempty"`
}

// NodeSpec describes a node to be created. The id is assigned by the graph.
type NodeSpec struct {
	Type     string
	Input    map[string]any
	Position Position
}

// NodePatch is a partial node update. Input entries are merged key by key;
// a nil Input leaves the node's input untouched. A nil Position leaves the
// node where it is.
type NodePatch struct {
	Input    map[string]any
	Position *Position
}

// GraphSnapshot is an immutable copy of a graph's nodes and edges in insertion
// order. It is the unit handed to validation and to the transport on save.
type GraphSnapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// WorkflowSummary is the persistence layer's view of a workflow. The engine
// treats ID as an opaque correlation key.
type WorkflowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
