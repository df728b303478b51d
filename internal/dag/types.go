// Package dag implements the dependency DAG builder (C9): turning the
// catalog's registered artifacts into a directed graph of named nodes,
// validated acyclic, that can be topologically sorted, traversed for
// transitive closure, and queried for a single model's execution plan.
//
// There is no graph library in the pack this dialect can lean on (the
// original implementation reaches for petgraph, which has no Go
// analogue among the retrieved examples), so the graph here is a plain
// adjacency-list structure walked with Kahn's algorithm.
package dag

// NodeType discriminates a dag node's origin for display/lineage
// purposes; it does not affect traversal.
type NodeType int

const (
	NodeModel NodeType = iota
	NodeKafkaSmt
	NodeKafkaSmtPipeline
	NodeKafkaSourceConnector
	NodeKafkaSinkConnector
	NodeWarehouseSourceDb
	NodeSourceDb
	NodeKafkaTopic
	NodeOther
)

// Node is one vertex of the dependency graph.
type Node struct {
	Name         string
	Type         NodeType
	IsExecutable bool
	// Relations are the names of nodes this node depends on (edges
	// point from each relation into this node).
	Relations []string
}

// Graph is the built dependency graph: every edge points from a
// dependency to its dependent.
type Graph struct {
	nodes    map[string]*Node
	order    []string // insertion order, for stable iteration
	outEdges map[string][]string
	inDegree map[string]int
}

func newGraph() *Graph {
	return &Graph{
		nodes:    map[string]*Node{},
		outEdges: map[string][]string{},
		inDegree: map[string]int{},
	}
}

// Get returns the named node, if present.
func (g *Graph) Get(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}
