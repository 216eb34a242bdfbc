package sqlgen

import (
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

// BuildFrom linearizes the join graph into FROM/JOIN lines.
//
// The join graph is treated as undirected. Nodes are visited in insertion
// order; each not-yet-visited node roots a FIFO breadth-first traversal of
// its connected component, emitting "FROM <root>" and then one
// "<TYPE> JOIN <node> ON <condition>" line for each edge that first
// discovers a node. Ties between incident edges resolve by edge insertion
// order.
//
// Each connected component yields one FROM block; a graph with several
// components yields several concatenated blocks. That concatenation is not
// valid standalone SQL, but it is the long-standing observable behavior
// and is preserved as-is.
func BuildFrom(nodes []*graph.Node, joins []graph.JoinEdge) []string {
	allowed := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		allowed[n.ID] = true
	}

	// Adjacency: node id -> incident edge indexes in insertion order.
	// Edges touching a node outside the given set (e.g. an excluded DML
	// target) are ignored.
	adjacency := make(map[string][]int)
	for i, e := range joins {
		if !allowed[e.A] || !allowed[e.B] {
			continue
		}
		adjacency[e.A] = append(adjacency[e.A], i)
		adjacency[e.B] = append(adjacency[e.B], i)
	}

	var lines []string
	visited := make(map[string]bool)

	for _, root := range nodes {
		if visited[root.ID] {
			continue
		}
		visited[root.ID] = true
		lines = append(lines, "FROM "+root.ID)

		queue := []string{root.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, idx := range adjacency[current] {
				edge := joins[idx]
				next := edge.B
				if next == current {
					next = edge.A
				}
				if visited[next] {
					continue
				}
				visited[next] = true
				lines = append(lines, fmt.Sprintf("%s JOIN %s ON %s", edge.Type, next, edge.Condition))
				queue = append(queue, next)
			}
		}
	}

	return lines
}
