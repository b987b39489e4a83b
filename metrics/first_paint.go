package metrics

import (
	"sort"

	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// ScriptURLs returns the urls of script requests in g accepted by filter.
// A nil filter accepts every script.
func ScriptURLs(g *graph.Graph, filter func(*graph.NetworkNode) bool) map[string]struct{} {
	urls := make(map[string]struct{})
	for _, n := range g.NetworkNodes() {
		if n.Record().ResourceType != trace.ResourceScript {
			continue
		}
		if filter != nil && !filter(n) {
			continue
		}
		urls[n.Record().URL] = struct{}{}
	}
	return urls
}

// FirstPaintOptions configure FirstPaintBasedGraph.
type FirstPaintOptions struct {
	// Cutoff is the paint timestamp on the trace timeline.
	Cutoff float64
	// TreatAsRenderBlocking selects the network nodes the paint waits on.
	TreatAsRenderBlocking func(*graph.NetworkNode) bool
	// ExtraCPU selects additional CPU nodes to keep, if set.
	ExtraCPU func(*graph.CPUNode) bool
}

type renderBlockingData struct {
	notBlockingScriptURLs map[string]struct{}
	cpuNodes              map[graph.Node]struct{}
}

// renderBlocking classifies what a paint at the cutoff depended on. A
// script that finished before the cutoff may block it; one whose first
// evaluation started after the cutoff cannot.
func renderBlocking(g *graph.Graph, opts FirstPaintOptions) renderBlockingData {
	var beforeCutoff []*graph.CPUNode
	firstEvaluation := make(map[string]*graph.CPUNode)
	for _, n := range g.CPUNodes() {
		if n.StartTime() <= opts.Cutoff {
			beforeCutoff = append(beforeCutoff, n)
		}
		for _, u := range n.EvaluateScriptURLs() {
			if prev, ok := firstEvaluation[u]; !ok || n.StartTime() < prev.StartTime() {
				firstEvaluation[u] = n
			}
		}
	}
	sort.SliceStable(beforeCutoff, func(i, j int) bool {
		return beforeCutoff[i].StartTime() < beforeCutoff[j].StartTime()
	})

	possiblyBlocking := ScriptURLs(g, func(n *graph.NetworkNode) bool {
		return n.EndTime() <= opts.Cutoff && opts.TreatAsRenderBlocking(n)
	})

	notBlocking := make(map[string]struct{})
	for u := range possiblyBlocking {
		if first, ok := firstEvaluation[u]; ok && first.StartTime() > opts.Cutoff {
			notBlocking[u] = struct{}{}
		}
	}

	cpu := make(map[graph.Node]struct{})
	var firstLayout, firstPaint, firstParse bool
	for _, n := range beforeCutoff {
		keep := opts.ExtraCPU != nil && opts.ExtraCPU(n)
		for _, u := range n.EvaluateScriptURLs() {
			_, blocking := possiblyBlocking[u]
			_, excluded := notBlocking[u]
			if blocking && !excluded {
				keep = true
			}
		}
		// the first layout, paint and parse are needed for any paint
		if !firstLayout && n.DidPerformLayout() {
			firstLayout, keep = true, true
		}
		if !firstPaint && n.HasEvent(trace.EventPaint) {
			firstPaint, keep = true, true
		}
		if !firstParse && n.HasEvent(trace.EventParseHTML) {
			firstParse, keep = true, true
		}
		if keep {
			cpu[n] = struct{}{}
		}
	}

	return renderBlockingData{notBlockingScriptURLs: notBlocking, cpuNodes: cpu}
}

// FirstPaintBasedGraph clones g down to what a paint at the cutoff waited
// on. Requests that ended after the cutoff are dropped, except the main
// document.
func FirstPaintBasedGraph(g *graph.Graph, opts FirstPaintOptions) (*graph.Graph, error) {
	data := renderBlocking(g, opts)

	return g.Clone(func(n graph.Node) bool {
		switch node := n.(type) {
		case *graph.NetworkNode:
			afterPaint := node.EndTime() > opts.Cutoff || node.StartTime() > opts.Cutoff
			if afterPaint && !node.IsMainDocument() {
				return false
			}
			if _, ok := data.notBlockingScriptURLs[node.Record().URL]; ok {
				return false
			}
			return opts.TreatAsRenderBlocking(node)
		default:
			_, ok := data.cpuNodes[n]
			return ok
		}
	})
}
