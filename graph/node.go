// Package graph models a page load as a dependency graph of network
// requests and main-thread tasks, and builds that graph from a capture.
//
// Node identity is pointer identity: timing maps and visited sets key on
// Node values, never on IDs, because one canonical graph is shared by every
// metric computed for a navigation.
package graph

// NodeType distinguishes the two node variants.
type NodeType string

const (
	TypeNetwork NodeType = "network"
	TypeCPU     NodeType = "cpu"
)

// Node is a vertex of the dependency graph. A node may start only after
// every one of its dependencies has finished.
type Node interface {
	ID() string
	Type() NodeType
	StartTime() float64
	EndTime() float64
	IsMainDocument() bool

	// Dependencies returns the nodes that must finish before this one starts.
	Dependencies() []Node
	// Dependents returns the nodes waiting on this one.
	Dependents() []Node

	// Edge mutation is for graph construction only. Transforms never call
	// these on canonical nodes; they clone instead.
	AddDependency(dep Node)
	AddDependent(dependent Node)
	RemoveDependency(dep Node)
	RemoveDependent(dependent Node)
	RemoveAllDependencies()

	edges() *baseNode
	cloneNode() Node
}

// baseNode carries identity and edges shared by both variants. self points
// back at the embedding node so edges always reference the outer value.
type baseNode struct {
	id             string
	self           Node
	isMainDocument bool
	dependencies   []Node
	dependents     []Node
}

func (b *baseNode) ID() string           { return b.id }
func (b *baseNode) IsMainDocument() bool { return b.isMainDocument }
func (b *baseNode) edges() *baseNode     { return b }

// SetIsMainDocument marks the final hop of the main document fetch.
func (b *baseNode) SetIsMainDocument(v bool) { b.isMainDocument = v }

func (b *baseNode) Dependencies() []Node {
	return append([]Node(nil), b.dependencies...)
}

func (b *baseNode) Dependents() []Node {
	return append([]Node(nil), b.dependents...)
}

// NumDependencies avoids the copy made by Dependencies.
func (b *baseNode) NumDependencies() int { return len(b.dependencies) }

// NumDependents avoids the copy made by Dependents.
func (b *baseNode) NumDependents() int { return len(b.dependents) }

// AddDependency records that b waits on dep. Self edges and duplicates are ignored.
func (b *baseNode) AddDependency(dep Node) {
	if dep == nil || dep == b.self || indexOf(b.dependencies, dep) >= 0 {
		return
	}
	b.dependencies = append(b.dependencies, dep)
	other := dep.edges()
	other.dependents = append(other.dependents, b.self)
}

func (b *baseNode) AddDependent(dependent Node) {
	if dependent == nil {
		return
	}
	dependent.AddDependency(b.self)
}

func (b *baseNode) RemoveDependency(dep Node) {
	i := indexOf(b.dependencies, dep)
	if i < 0 {
		return
	}
	b.dependencies = append(b.dependencies[:i], b.dependencies[i+1:]...)
	other := dep.edges()
	if j := indexOf(other.dependents, b.self); j >= 0 {
		other.dependents = append(other.dependents[:j], other.dependents[j+1:]...)
	}
}

func (b *baseNode) RemoveDependent(dependent Node) {
	if dependent == nil {
		return
	}
	dependent.RemoveDependency(b.self)
}

func (b *baseNode) RemoveAllDependencies() {
	for _, dep := range b.Dependencies() {
		b.RemoveDependency(dep)
	}
}

func indexOf(nodes []Node, n Node) int {
	for i, candidate := range nodes {
		if candidate == n {
			return i
		}
	}
	return -1
}
