package graph

import (
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// ConnectionKey identifies the connection a request travels on.
// Multiplexed origins share one connection for every request.
type ConnectionKey struct {
	Origin      string
	Multiplexed bool
}

// NetworkNode wraps one network record.
type NetworkNode struct {
	baseNode
	record  *trace.Record
	connKey ConnectionKey
}

// NewNetworkNode creates an unconnected node for r. r must not be mutated afterwards.
func NewNetworkNode(r *trace.Record) *NetworkNode {
	n := &NetworkNode{
		record: r,
		connKey: ConnectionKey{
			Origin:      r.Origin(),
			Multiplexed: r.IsMultiplexed(),
		},
	}
	n.id = r.RequestID
	n.self = n
	return n
}

func (n *NetworkNode) Type() NodeType        { return TypeNetwork }
func (n *NetworkNode) StartTime() float64    { return n.record.StartTime }
func (n *NetworkNode) EndTime() float64      { return n.record.EndTime }
func (n *NetworkNode) Record() *trace.Record { return n.record }

// ConnectionKey returns the resolved (origin, multiplexed) pair.
func (n *NetworkNode) ConnectionKey() ConnectionKey { return n.connKey }

// InitiatorType reports why the request was issued.
func (n *NetworkNode) InitiatorType() trace.InitiatorType { return n.record.Initiator.Type }

// FromDiskCache reports whether the response was served from the disk cache.
func (n *NetworkNode) FromDiskCache() bool { return n.record.FromDiskCache }

// IsNonNetworkProtocol reports data:, blob: and similar requests.
func (n *NetworkNode) IsNonNetworkProtocol() bool { return n.record.IsNonNetworkProtocol() }

// IsConnectionless reports requests that never occupy a network connection.
func (n *NetworkNode) IsConnectionless() bool {
	return n.FromDiskCache() || n.IsNonNetworkProtocol()
}

// HasRenderBlockingPriority reports resources the browser fetches as if they
// block first paint: VeryHigh anything, or High scripts and documents.
func (n *NetworkNode) HasRenderBlockingPriority() bool {
	p := n.record.Priority
	switch {
	case p == trace.PriorityVeryHigh:
		return true
	case p == trace.PriorityHigh && n.record.ResourceType == trace.ResourceScript:
		return true
	case p == trace.PriorityHigh && n.record.ResourceType == trace.ResourceDocument:
		return true
	}
	return false
}

func (n *NetworkNode) cloneNode() Node {
	c := &NetworkNode{record: n.record, connKey: n.connKey}
	c.id = n.id
	c.self = c
	c.isMainDocument = n.isMainDocument
	return c
}
