package api

import "strings"

// IssueKind identifies a structural defect that prevents a save.
type IssueKind string

const (
	// IssueDanglingEdge flags an edge whose source or target no longer resolves
	// to a node in the graph.
	IssueDanglingEdge IssueKind = "dangling_edge"

	// IssueCycle flags a directed cycle; a savable workflow must be a DAG.
	IssueCycle IssueKind = "cycle"

	// IssueOrphanNode flags a node with no edges at all. Whether orphans block
	// a save is a policy decision.
	IssueOrphanNode IssueKind = "orphan_node"
)

// ValidationIssue describes one structural defect. EdgeID is set for dangling
// edges, NodeIDs for cycles (the ids on the cycle, in traversal order) and for
// orphan nodes (a single id).
type ValidationIssue struct {
	Kind    IssueKind
	EdgeID  string
	NodeIDs []string
}

func (i ValidationIssue) String() string {
	switch i.Kind {
	case IssueDanglingEdge:
		return "dangling edge " + i.EdgeID
	case IssueCycle:
		return "cycle through " + strings.Join(i.NodeIDs, " -> ")
	case IssueOrphanNode:
		return "unconnected node " + strings.Join(i.NodeIDs, ", ")
	default:
		return string(i.Kind)
	}
}

// ValidationResult is the verdict of a structural check. An empty issue list
// means the graph may be saved.
type ValidationResult struct {
	Issues []ValidationIssue
}

// Valid reports whether the graph passed every check.
func (r ValidationResult) Valid() bool { return len(r.Issues) == 0 }

// Err converts an invalid result into a ValidationError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Issues: r.Issues}
}
