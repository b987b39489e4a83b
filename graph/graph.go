package graph

import (
	"sort"
)

// Graph is a rooted dependency graph. The root is the first hop of the main
// document fetch; every other node is reachable from it through dependents.
// A Graph is read-only once built and safe to share between goroutines.
type Graph struct {
	root  Node
	nodes []Node
}

// New wraps the graph containing root. Nodes are listed in breadth-first
// order from the root.
func New(root Node) *Graph {
	root = Root(root)
	g := &Graph{root: root}
	Traverse(root, func(n Node) { g.nodes = append(g.nodes, n) })
	return g
}

// Root returns the root node.
func (g *Graph) Root() Node { return g.root }

// Nodes returns every node reachable from the root.
func (g *Graph) Nodes() []Node { return append([]Node(nil), g.nodes...) }

// Len returns the number of reachable nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// NetworkNodes returns the network nodes in traversal order.
func (g *Graph) NetworkNodes() []*NetworkNode {
	var out []*NetworkNode
	for _, n := range g.nodes {
		if nn, ok := n.(*NetworkNode); ok {
			out = append(out, nn)
		}
	}
	return out
}

// CPUNodes returns the CPU nodes in traversal order.
func (g *Graph) CPUNodes() []*CPUNode {
	var out []*CPUNode
	for _, n := range g.nodes {
		if cn, ok := n.(*CPUNode); ok {
			out = append(out, cn)
		}
	}
	return out
}

// MainDocument returns the node flagged as the main document, falling back
// to the root.
func (g *Graph) MainDocument() *NetworkNode {
	for _, n := range g.NetworkNodes() {
		if n.IsMainDocument() {
			return n
		}
	}
	nn, _ := g.root.(*NetworkNode)
	return nn
}

// Find returns the node with the given id.
func (g *Graph) Find(id string) (Node, bool) {
	for _, n := range g.nodes {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}

// Clone returns a restricted copy of g; see CloneWithRelationships.
func (g *Graph) Clone(keep func(Node) bool) (*Graph, error) {
	root, err := CloneWithRelationships(g.root, keep)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// SortedByStart returns the nodes ordered by observed start time, ties
// broken by id.
func (g *Graph) SortedByStart() []Node {
	out := g.Nodes()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime() != out[j].StartTime() {
			return out[i].StartTime() < out[j].StartTime()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}
