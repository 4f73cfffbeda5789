// Package validate runs the structural checks that gate a save: referential
// integrity of edges, cycle freedom, and (by policy) absence of unconnected
// nodes. It never runs on every edit; the session invokes it lazily before
// each save attempt.
package validate

import "github.com/flowboard/flowboard/pkg/api"

// Policy tunes the optional checks.
type Policy struct {
	// OrphansBlockSave flags nodes that participate in no edge at all.
	// Isolated nodes are always permitted while editing; this only decides
	// whether they block a save.
	OrphansBlockSave bool
}

// DefaultPolicy matches the observed product behavior: unconnected nodes and
// cycles both block a save.
func DefaultPolicy() Policy {
	return Policy{OrphansBlockSave: true}
}

// Graph checks snap and returns the verdict. Issues are reported in a stable
// order: dangling edges first (edge insertion order), then cycles, then
// orphan nodes (node insertion order). Complexity is O(V+E).
func Graph(snap api.GraphSnapshot, policy Policy) api.ValidationResult {
	var issues []api.ValidationIssue

	present := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		present[n.ID] = true
	}

	// Dangling edges are excluded from the adjacency used for cycle
	// detection; they are already reported on their own.
	adj := make(map[string][]string, len(snap.Nodes))
	connected := make(map[string]bool, len(snap.Nodes))
	for _, e := range snap.Edges {
		if !present[e.Source] || !present[e.Target] {
			issues = append(issues, api.ValidationIssue{
				Kind:   api.IssueDanglingEdge,
				EdgeID: e.ID,
			})
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		connected[e.Source] = true
		connected[e.Target] = true
	}

	for _, cycle := range findCycles(snap.Nodes, adj) {
		issues = append(issues, api.ValidationIssue{
			Kind:    api.IssueCycle,
			NodeIDs: cycle,
		})
	}

	if policy.OrphansBlockSave {
		for _, n := range snap.Nodes {
			if !connected[n.ID] {
				issues = append(issues, api.ValidationIssue{
					Kind:    api.IssueOrphanNode,
					NodeIDs: []string{n.ID},
				})
			}
		}
	}

	return api.ValidationResult{Issues: issues}
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS stack
	colorBlack        // fully explored
)

// findCycles runs a DFS over every node, tracking the nodes currently on the
// stack. When an edge reaches a gray node, the stack segment from that node
// onward is one directed cycle. Each cycle is reported once, rooted at its
// first-discovered node.
func findCycles(nodes []api.Node, adj map[string][]string) [][]string {
	color := make(map[string]int, len(nodes))
	var cycles [][]string
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = colorGray
		stack = append(stack, id)

		for _, next := range adj[id] {
			switch color[next] {
			case colorWhite:
				visit(next)
			case colorGray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle := make([]string, len(stack)-i)
						copy(cycle, stack[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = colorBlack
	}

	for _, n := range nodes {
		if color[n.ID] == colorWhite {
			visit(n.ID)
		}
	}
	return cycles
}
