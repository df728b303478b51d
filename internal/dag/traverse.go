package dag

import "sort"

// direction discriminates which edge set Traverse follows.
type direction int

const (
	Upstream   direction = iota // follow a node's declared relations (its dependencies)
	Downstream                  // follow the nodes that declared this node as a relation
)

// Toposort returns every node name in dependency order (a relation
// always precedes whatever named it), via Kahn's algorithm.
func (g *Graph) Toposort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = g.inDegree[name]
	}

	var queue []string
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var out []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		out = append(out, name)

		var next []string
		for _, dependent := range g.outEdges[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}

	if len(out) != len(g.nodes) {
		return nil, &CycleError{Nodes: remaining(g.nodes, out)}
	}
	return out, nil
}

// detectCycle is Build's up-front validation: it returns the names of
// every node Kahn's algorithm could not place, which is exactly the
// set of nodes that participate in (or depend on) a cycle.
func detectCycle(g *Graph) []string {
	_, err := g.Toposort()
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CycleError); ok {
		return ce.Nodes
	}
	return nil
}

func remaining(nodes map[string]*Node, placed []string) []string {
	done := make(map[string]bool, len(placed))
	for _, n := range placed {
		done[n] = true
	}
	var left []string
	for name := range nodes {
		if !done[name] {
			left = append(left, name)
		}
	}
	sort.Strings(left)
	return left
}

// Traverse does a depth-first walk from start following direction,
// returning every reachable node name (not including start itself).
func (g *Graph) Traverse(start string, dir direction) map[string]bool {
	visited := map[string]bool{}
	var stack []string
	stack = append(stack, start)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var neighbors []string
		switch dir {
		case Upstream:
			if n, ok := g.nodes[cur]; ok {
				neighbors = n.Relations
			}
		case Downstream:
			neighbors = g.outEdges[cur]
		}
		for _, next := range neighbors {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return visited
}

// TransitiveClosure returns every node reachable from name in the
// given direction, ordered by the graph's global topological sort.
func (g *Graph) TransitiveClosure(name string, dir direction) ([]*Node, error) {
	if _, ok := g.nodes[name]; !ok {
		return nil, nil
	}
	visited := g.Traverse(name, dir)
	return g.filteredToposort(visited)
}

// GetModelExecutionOrder returns name plus every upstream and
// downstream node it transitively touches, in topological order —
// the execution plan for running just enough of the pipeline to
// materialize (or propagate from) a single model.
func (g *Graph) GetModelExecutionOrder(name string) ([]*Node, error) {
	if _, ok := g.nodes[name]; !ok {
		return nil, nil
	}
	included := g.Traverse(name, Upstream)
	for k := range g.Traverse(name, Downstream) {
		included[k] = true
	}
	included[name] = true
	return g.filteredToposort(included)
}

func (g *Graph) filteredToposort(include map[string]bool) ([]*Node, error) {
	order, err := g.Toposort()
	if err != nil {
		return nil, err
	}
	var out []*Node
	for _, name := range order {
		if include[name] {
			out = append(out, g.nodes[name])
		}
	}
	return out, nil
}

// ResolveRef resolves a DAG node name to its canonical Name field,
// failing RefNotFoundError if the graph has no such node.
func (g *Graph) ResolveRef(name string) (string, error) {
	n, ok := g.nodes[name]
	if !ok {
		return "", &RefNotFoundError{Name: name}
	}
	return n.Name, nil
}
