package graph

import (
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// CPUNode is one top-level main-thread task together with every event
// that ran inside it.
type CPUNode struct {
	baseNode
	task *trace.Task
}

// NewCPUNode creates an unconnected node for task.
func NewCPUNode(id string, task *trace.Task) *CPUNode {
	n := &CPUNode{task: task}
	n.id = id
	n.self = n
	return n
}

func (n *CPUNode) Type() NodeType     { return TypeCPU }
func (n *CPUNode) StartTime() float64 { return n.task.StartTime }
func (n *CPUNode) EndTime() float64   { return n.task.EndTime() }
func (n *CPUNode) Duration() float64  { return n.task.Duration }
func (n *CPUNode) Task() *trace.Task  { return n.task }

// Events returns the events nested in the task.
func (n *CPUNode) Events() []trace.TaskEvent { return n.task.Events }

// HasEvent reports whether an event with the given name ran in the task.
func (n *CPUNode) HasEvent(name string) bool {
	for _, e := range n.task.Events {
		if e.Name == name {
			return true
		}
	}
	return false
}

// DidPerformLayout reports whether the task ran layout.
func (n *CPUNode) DidPerformLayout() bool {
	return n.HasEvent(trace.EventLayout)
}

// EvaluateScriptURLs returns the distinct script urls evaluated or called
// into by the task, in event order.
func (n *CPUNode) EvaluateScriptURLs() []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, e := range n.task.Events {
		switch e.Name {
		case trace.EventEvaluateScript, trace.EventFunctionCall, trace.EventV8Compile:
		default:
			continue
		}
		if e.URL == "" {
			continue
		}
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		urls = append(urls, e.URL)
	}
	return urls
}

// AttributableURL names the script the task's cost is charged to: the first
// evaluated script, else the first url on any recorded stack. Empty when
// the task cannot be attributed.
func (n *CPUNode) AttributableURL() string {
	if urls := n.EvaluateScriptURLs(); len(urls) > 0 {
		return urls[0]
	}
	for _, e := range n.task.Events {
		for _, u := range e.StackURLs {
			if u != "" {
				return u
			}
		}
	}
	return ""
}

func (n *CPUNode) cloneNode() Node {
	c := &CPUNode{task: n.task}
	c.id = n.id
	c.self = c
	c.isMainDocument = n.isMainDocument
	return c
}
