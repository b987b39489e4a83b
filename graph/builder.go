package graph

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/logger"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

const (
	// Tasks shorter than this are pruned when they connect nothing interesting.
	significantTaskDurationMs = 10
	// A script or stylesheet may be consumed by a task that started up to this
	// long before the response finished.
	urlDependencyToleranceMs = -100
	// XHRReadyStateChange with readyState DONE.
	xhrReadyStateDone = 4
)

// Builder turns a capture into the canonical dependency graph.
type Builder struct {
	logger *zap.SugaredLogger
}

// NewBuilder creates a graph builder.
func NewBuilder(log *zap.SugaredLogger) *Builder {
	return &Builder{logger: logger.OrNop(log).Named("graph.builder")}
}

// networkIndex holds the lookup tables used while linking nodes.
type networkIndex struct {
	nodes   []*NetworkNode
	byID    map[string]*NetworkNode
	byURL   map[string][]*NetworkNode
	byFrame map[string]*NetworkNode
}

// Build creates one node per record and per top-level task, links them, and
// validates that the result is acyclic. Records and tasks are expected in
// start-time order. It fails with a construction error when no record
// matches the navigation's main document or when the links form a cycle.
func (b *Builder) Build(records []*trace.Record, tasks []*trace.Task, nav *trace.Navigation) (*Graph, error) {
	if nav == nil {
		return nil, grapherr.Construction(grapherr.SubcategoryMainResourceNotFound, "main resource not found: no navigation")
	}

	idx := indexRecords(records)
	main := findMainDocument(idx, nav)
	if main == nil {
		return nil, grapherr.Construction(grapherr.SubcategoryMainResourceNotFound,
			"main resource not found: %s", nav.MainDocumentURL).
			WithContext(logger.FieldURL, nav.MainDocumentURL)
	}
	main.SetIsMainDocument(true)
	root := redirectChainHead(idx, main)

	linkNetworkNodes(idx, root)

	cpuNodes := createCPUNodes(tasks)
	linkCPUNodes(idx, cpuNodes, root)
	kept, pruned := pruneShortTasks(cpuNodes)

	all := make([]Node, 0, len(idx.nodes)+len(kept))
	for _, n := range idx.nodes {
		all = append(all, n)
	}
	for _, n := range kept {
		all = append(all, n)
	}
	if err := validateAcyclic(all); err != nil {
		return nil, err
	}

	g := New(root)
	b.logger.Debugw("built dependency graph",
		logger.FieldNodeCount, g.Len(),
		logger.FieldEdgeCount, countEdges(g),
		"network_nodes", len(idx.nodes),
		"cpu_nodes", len(kept),
		"pruned_tasks", pruned,
	)
	return g, nil
}

func indexRecords(records []*trace.Record) *networkIndex {
	idx := &networkIndex{
		byID:    make(map[string]*NetworkNode, len(records)),
		byURL:   make(map[string][]*NetworkNode),
		byFrame: make(map[string]*NetworkNode),
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, dup := idx.byID[r.RequestID]; dup {
			continue
		}
		n := NewNetworkNode(r)
		idx.nodes = append(idx.nodes, n)
		idx.byID[r.RequestID] = n
		idx.byURL[r.URL] = append(idx.byURL[r.URL], n)
		if r.IsDocument() && r.FrameID != "" {
			if _, ok := idx.byFrame[r.FrameID]; !ok {
				idx.byFrame[r.FrameID] = n
			}
		}
	}
	return idx
}

// findMainDocument picks the last document fetched for the main document
// url, then for the requested url, then the first document of the main frame.
func findMainDocument(idx *networkIndex, nav *trace.Navigation) *NetworkNode {
	lastDocumentFor := func(url string) *NetworkNode {
		if url == "" {
			return nil
		}
		var found *NetworkNode
		for _, n := range idx.byURL[url] {
			if n.record.IsDocument() {
				found = n
			}
		}
		return found
	}

	if n := lastDocumentFor(nav.MainDocumentURL); n != nil {
		return n
	}
	if n := lastDocumentFor(nav.RequestedURL); n != nil {
		return n
	}
	if nav.FrameID != "" {
		return idx.byFrame[nav.FrameID]
	}
	return nil
}

func redirectChainHead(idx *networkIndex, n *NetworkNode) *NetworkNode {
	seen := map[*NetworkNode]struct{}{n: {}}
	for n.record.RedirectSource != "" {
		prev, ok := idx.byID[n.record.RedirectSource]
		if !ok {
			break
		}
		if _, loop := seen[prev]; loop {
			break
		}
		seen[prev] = struct{}{}
		n = prev
	}
	return n
}

// initiatorURLs lists the initiator url followed by the stack urls, deduplicated.
func initiatorURLs(r *trace.Record) []string {
	var urls []string
	seen := make(map[string]struct{})
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	add(r.Initiator.URL)
	for _, u := range r.Initiator.StackURLs {
		add(u)
	}
	return urls
}

// linkNetworkNodes makes every request depend on what issued it: its
// redirect predecessor, its initiator request, or any unambiguous request
// for an initiator url that started no later than it did. Requests with no
// resolvable initiator depend on the root.
func linkNetworkNodes(idx *networkIndex, root *NetworkNode) {
	for _, n := range idx.nodes {
		if n == root {
			continue
		}
		r := n.record

		if r.RedirectSource != "" {
			if prev, ok := idx.byID[r.RedirectSource]; ok && prev != n {
				n.AddDependency(prev)
				continue
			}
		}

		if r.Initiator.RequestID != "" {
			if initiator, ok := idx.byID[r.Initiator.RequestID]; ok && initiator != n {
				n.AddDependency(initiator)
				continue
			}
		}

		found := false
		for _, u := range initiatorURLs(r) {
			var candidates []*NetworkNode
			for _, c := range idx.byURL[u] {
				if c != n && c.StartTime() <= n.StartTime() {
					candidates = append(candidates, c)
				}
			}
			if len(candidates) == 1 {
				n.AddDependency(candidates[0])
				found = true
			}
		}

		if !found {
			n.AddDependency(root)
		}
	}
}

// createCPUNodes folds tasks that start inside a previous task into one
// execution window. Zero-length tasks are dropped.
func createCPUNodes(tasks []*trace.Task) []*CPUNode {
	var sorted []*trace.Task
	for _, t := range tasks {
		if t != nil && t.Duration > 0 {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	var windows []*trace.Task
	for _, t := range sorted {
		if len(windows) > 0 {
			last := windows[len(windows)-1]
			if t.StartTime < last.EndTime() {
				if t.EndTime() > last.EndTime() {
					last.Duration = t.EndTime() - last.StartTime
				}
				last.Events = append(last.Events, t.Events...)
				continue
			}
		}
		w := &trace.Task{
			Name:      t.Name,
			StartTime: t.StartTime,
			Duration:  t.Duration,
			Events:    append([]trace.TaskEvent(nil), t.Events...),
		}
		windows = append(windows, w)
	}

	nodes := make([]*CPUNode, len(windows))
	for i, w := range windows {
		nodes[i] = NewCPUNode(fmt.Sprintf("cpu.%d", i), w)
	}
	return nodes
}

// cpuLinker resolves the trace events of each task to graph edges.
type cpuLinker struct {
	idx    *networkIndex
	timers map[string]*CPUNode
}

// dependOnFrame links a task to the document of the frame it ran in.
func (l *cpuLinker) dependOnFrame(n *CPUNode, frameID string) {
	if frameID == "" {
		return
	}
	doc, ok := l.idx.byFrame[frameID]
	if !ok || doc.StartTime() >= n.StartTime() {
		return
	}
	n.AddDependency(doc)
}

// dependOnURL links a task to the request for url that finished closest
// before the task started. Any candidate that started after the task
// disqualifies the url entirely.
func (l *cpuLinker) dependOnURL(n *CPUNode, url string) {
	if url == "" {
		return
	}
	var best *NetworkNode
	bestDistance := 0.0
	for _, c := range l.idx.byURL[url] {
		if n.StartTime() <= c.StartTime() {
			return
		}
		distance := n.StartTime() - c.EndTime()
		if distance >= urlDependencyToleranceMs && (best == nil || distance < bestDistance) {
			best = c
			bestDistance = distance
		}
	}
	if best != nil {
		n.AddDependency(best)
	}
}

// requestDependsOn makes a script-issued request wait for the issuing task.
func (l *cpuLinker) requestDependsOn(n *CPUNode, requestID string) {
	req, ok := l.idx.byID[requestID]
	if !ok || req.StartTime() <= n.StartTime() {
		return
	}
	switch req.record.ResourceType {
	case trace.ResourceXHR, trace.ResourceFetch, trace.ResourceScript:
		n.AddDependent(req)
	}
}

func (l *cpuLinker) dependOnStack(n *CPUNode, e trace.TaskEvent) {
	for _, u := range e.StackURLs {
		l.dependOnURL(n, u)
	}
}

func (l *cpuLinker) link(n *CPUNode) {
	for _, e := range n.task.Events {
		switch e.Name {
		case trace.EventTimerInstall:
			if e.TimerID != "" {
				l.timers[e.TimerID] = n
			}
			l.dependOnStack(n, e)
		case trace.EventTimerFire:
			installer, ok := l.timers[e.TimerID]
			if !ok || installer == n || installer.EndTime() > n.StartTime() {
				continue
			}
			installer.AddDependent(n)
		case trace.EventInvalidateLayout, trace.EventScheduleStyleRecalculation:
			l.dependOnFrame(n, e.FrameID)
			l.dependOnStack(n, e)
		case trace.EventEvaluateScript:
			l.dependOnFrame(n, e.FrameID)
			l.dependOnURL(n, e.URL)
			l.dependOnStack(n, e)
		case trace.EventXHRReadyStateChange:
			if e.ReadyState != xhrReadyStateDone {
				continue
			}
			l.dependOnURL(n, e.URL)
			l.dependOnStack(n, e)
		case trace.EventFunctionCall, trace.EventV8Compile:
			l.dependOnFrame(n, e.FrameID)
			l.dependOnURL(n, e.URL)
		case trace.EventParseAuthorStyleSheet:
			l.dependOnFrame(n, e.FrameID)
			l.dependOnURL(n, e.StyleSheetURL)
		case trace.EventResourceSendRequest:
			l.dependOnFrame(n, e.FrameID)
			l.requestDependsOn(n, e.RequestID)
			l.dependOnStack(n, e)
		}
	}
}

func linkCPUNodes(idx *networkIndex, nodes []*CPUNode, root *NetworkNode) {
	l := &cpuLinker{idx: idx, timers: make(map[string]*CPUNode)}
	for _, n := range nodes {
		l.link(n)
		if n.NumDependencies() == 0 {
			n.AddDependency(root)
		}
	}
}

// pruneShortTasks detaches short tasks that are not the first layout, paint
// or HTML parse and that sit on a simple chain, rewiring their dependencies
// straight to their dependents.
func pruneShortTasks(nodes []*CPUNode) (kept []*CPUNode, pruned int) {
	var foundLayout, foundPaint, foundParse bool
	for _, n := range nodes {
		isFirst := false
		if !foundLayout && n.HasEvent(trace.EventLayout) {
			isFirst, foundLayout = true, true
		}
		if !foundPaint && n.HasEvent(trace.EventPaint) {
			isFirst, foundPaint = true, true
		}
		if !foundParse && n.HasEvent(trace.EventParseHTML) {
			isFirst, foundParse = true, true
		}

		if isFirst || n.Duration() >= significantTaskDurationMs ||
			(n.NumDependencies() > 1 && n.NumDependents() > 1) {
			kept = append(kept, n)
			continue
		}

		dependencies := n.Dependencies()
		dependents := n.Dependents()
		for _, dep := range dependencies {
			n.RemoveDependency(dep)
			for _, d := range dependents {
				dep.AddDependent(d)
			}
		}
		for _, d := range dependents {
			n.RemoveDependent(d)
		}
		pruned++
	}
	return kept, pruned
}

// validateAcyclic runs Kahn's algorithm over nodes and reports every node
// that could not be ordered.
func validateAcyclic(nodes []Node) error {
	inDegree := make(map[Node]int, len(nodes))
	var queue []Node
	for _, n := range nodes {
		d := len(n.edges().dependencies)
		inDegree[n] = d
		if d == 0 {
			queue = append(queue, n)
		}
	}

	ordered := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered++
		for _, d := range n.edges().dependents {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if ordered == len(nodes) {
		return nil
	}

	var stuck []string
	for _, n := range nodes {
		if inDegree[n] > 0 {
			stuck = append(stuck, n.ID())
		}
	}
	sort.Strings(stuck)
	return grapherr.Construction(grapherr.SubcategoryCycle,
		"dependency cycle detected among %d nodes", len(stuck)).
		WithContext("nodes", stuck)
}

func countEdges(g *Graph) int {
	edges := 0
	for _, n := range g.nodes {
		edges += len(n.edges().dependencies)
	}
	return edges
}
