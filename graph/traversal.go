package graph

import (
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
)

// Root follows first dependencies until it reaches a node with none.
func Root(n Node) Node {
	seen := make(map[Node]struct{})
	for {
		deps := n.edges().dependencies
		if len(deps) == 0 {
			return n
		}
		if _, loop := seen[n]; loop {
			return n
		}
		seen[n] = struct{}{}
		n = deps[0]
	}
}

// Traverse visits start and every node reachable through dependents in
// breadth-first order. Each node is visited once.
func Traverse(start Node, fn func(n Node)) {
	TraverseWith(start, fn, func(n Node) []Node { return n.edges().dependents })
}

// TraverseWith is Traverse with a caller-supplied neighbour function.
func TraverseWith(start Node, fn func(n Node), next func(n Node) []Node) {
	visited := map[Node]struct{}{start: {}}
	queue := []Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		fn(n)
		for _, m := range next(n) {
			if _, ok := visited[m]; ok {
				continue
			}
			visited[m] = struct{}{}
			queue = append(queue, m)
		}
	}
}

// Dependencies is a neighbour function for TraverseWith walking toward the root.
func Dependencies(n Node) []Node { return n.edges().dependencies }

// IsDependentOf reports whether target is a transitive dependency of n.
func IsDependentOf(n, target Node) bool {
	found := false
	TraverseWith(n, func(m Node) {
		if m == target && m != n {
			found = true
		}
	}, Dependencies)
	return found
}

// CloneWithoutRelationships copies n with no edges.
func CloneWithoutRelationships(n Node) Node {
	return n.cloneNode()
}

// CloneWithRelationships copies the graph containing n, keeping every node
// for which keep returns true together with all of its transitive
// dependencies. Edges between kept nodes are recreated. A nil keep copies
// everything. It returns the clone of the root; the root must be kept.
func CloneWithRelationships(n Node, keep func(Node) bool) (Node, error) {
	root := Root(n)
	clones := make(map[Node]Node)

	var order []Node
	Traverse(root, func(orig Node) {
		order = append(order, orig)
		if keep != nil && !keep(orig) {
			return
		}
		TraverseWith(orig, func(dep Node) {
			if _, ok := clones[dep]; !ok {
				clones[dep] = dep.cloneNode()
			}
		}, Dependencies)
	})

	rootClone, ok := clones[root]
	if !ok {
		return nil, grapherr.Construction(grapherr.SubcategoryRootExcluded,
			"cannot create graph without root node %s", root.ID())
	}

	for _, orig := range order {
		clone, ok := clones[orig]
		if !ok {
			continue
		}
		for _, dep := range orig.edges().dependencies {
			if depClone, ok := clones[dep]; ok {
				clone.AddDependency(depClone)
			}
		}
	}
	return rootClone, nil
}

// HasCycle reports whether a cycle is reachable from n along dependents or
// along dependencies.
func HasCycle(n Node) bool {
	return hasCycle(n, func(m Node) []Node { return m.edges().dependents }) ||
		hasCycle(n, Dependencies)
}

// hasCycle is an iterative three-colour depth-first search.
func hasCycle(start Node, next func(Node) []Node) bool {
	const (
		active = 1
		done   = 2
	)
	type frame struct {
		node Node
		i    int
	}
	state := map[Node]int{start: active}
	stack := []frame{{node: start}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		neighbours := next(top.node)
		if top.i >= len(neighbours) {
			state[top.node] = done
			stack = stack[:len(stack)-1]
			continue
		}
		m := neighbours[top.i]
		top.i++
		switch state[m] {
		case active:
			return true
		case done:
			continue
		}
		state[m] = active
		stack = append(stack, frame{node: m})
	}
	return false
}
