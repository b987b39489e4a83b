package simulator

import (
	"sort"

	"github.com/trannam110702/lighthouse-sub001/graph"
)

// NodeTiming is the simulated schedule of one node, in milliseconds from
// the start of the simulation.
type NodeTiming struct {
	QueuedTime       float64           `json:"queued_time"`
	StartTime        float64           `json:"start_time"`
	EndTime          float64           `json:"end_time"`
	Duration         float64           `json:"duration"`
	ConnectionTiming *ConnectionTiming `json:"connection_timing,omitempty"`
}

// Result is owned by the caller that ran the simulation and is not
// modified afterwards.
type Result struct {
	Label    string
	TimeInMs float64
	Timings  map[graph.Node]NodeTiming
}

// Timing returns the schedule of n.
func (r *Result) Timing(n graph.Node) (NodeTiming, bool) {
	t, ok := r.Timings[n]
	return t, ok
}

// TimedNode pairs a node with its simulated schedule.
type TimedNode struct {
	Node   graph.Node
	Timing NodeTiming
}

// Sorted returns every timing ordered by simulated start, then end, then node id.
func (r *Result) Sorted() []TimedNode {
	out := make([]TimedNode, 0, len(r.Timings))
	for n, t := range r.Timings {
		out = append(out, TimedNode{Node: n, Timing: t})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Timing.StartTime != b.Timing.StartTime {
			return a.Timing.StartTime < b.Timing.StartTime
		}
		if a.Timing.EndTime != b.Timing.EndTime {
			return a.Timing.EndTime < b.Timing.EndTime
		}
		return a.Node.ID() < b.Node.ID()
	})
	return out
}

// CPUTimings returns the CPU nodes in start order.
func (r *Result) CPUTimings() []TimedNode {
	var out []TimedNode
	for _, tn := range r.Sorted() {
		if tn.Node.Type() == graph.TypeCPU {
			out = append(out, tn)
		}
	}
	return out
}
