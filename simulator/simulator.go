package simulator

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/trannam110702/lighthouse-sub001/graph"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/logger"
)

const (
	// DefaultLayoutTaskMultiplier scales the CPU multiplier for tasks that ran layout.
	DefaultLayoutTaskMultiplier = 0.5
	// MaximumCPUTaskDurationMs caps any single simulated task.
	MaximumCPUTaskDurationMs = 10000
	maximumIterations        = 100000

	diskCacheBaseMs           = 8
	diskCacheMsPerMB          = 20
	nonNetworkProtocolBaseMs  = 2
	nonNetworkProtocolMsPerMB = 10
	bytesPerMB                = 1024 * 1024
)

// Options configure a Simulator.
type Options struct {
	Profile Profile
	// LayoutTaskMultiplier is relative to the CPU multiplier. Zero means the default.
	LayoutTaskMultiplier float64
	// ConnectionsPerOrigin bounds HTTP/1.1 concurrency. Zero means the default.
	ConnectionsPerOrigin int
	// MaximumConcurrentRequests caps in-flight requests across origins. Zero means unlimited.
	MaximumConcurrentRequests int
	// Analysis supplies per-origin latency observed in the capture; nil uses defaults.
	Analysis *NetworkAnalysis
	// LogNodeTimings logs the schedule of every node after each run.
	LogNodeTimings bool
	Logger         *zap.SugaredLogger
}

// SimulateOptions are per call.
type SimulateOptions struct {
	// Label tags the run in logs. It never affects the result.
	Label string
}

// Simulator is immutable after New and safe for concurrent Simulate calls.
type Simulator struct {
	profile              Profile
	layoutTaskMultiplier float64
	connectionsPerOrigin int
	maxConcurrent        int
	analysis             *NetworkAnalysis
	logNodeTimings       bool
	logger               *zap.SugaredLogger
}

// New validates the profile and creates a simulator.
func New(opts Options) (*Simulator, error) {
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	layout := opts.LayoutTaskMultiplier
	if layout <= 0 {
		layout = DefaultLayoutTaskMultiplier
	}
	perOrigin := opts.ConnectionsPerOrigin
	if perOrigin <= 0 {
		perOrigin = DefaultConnectionsPerOrigin
	}
	maxConcurrent := opts.MaximumConcurrentRequests
	if maxConcurrent < 0 {
		maxConcurrent = 0
	}
	return &Simulator{
		profile:              opts.Profile,
		layoutTaskMultiplier: layout,
		connectionsPerOrigin: perOrigin,
		maxConcurrent:        maxConcurrent,
		analysis:             opts.Analysis,
		logNodeTimings:       opts.LogNodeTimings,
		logger:               logger.OrNop(opts.Logger).Named("simulator"),
	}, nil
}

// Profile returns the throttling profile the simulator runs under.
func (s *Simulator) Profile() Profile { return s.profile }

// Simulate runs g to completion. Every call owns its own state, so a
// failed or abandoned call leaves nothing behind.
func (s *Simulator) Simulate(g *graph.Graph, opts SimulateOptions) (*Result, error) {
	if g == nil || g.Root() == nil {
		return nil, grapherr.Simulation(grapherr.SubcategoryUnreachedNodes, "cannot simulate an empty graph")
	}
	if graph.HasCycle(g.Root()) {
		return nil, grapherr.Simulation(grapherr.SubcategoryCycle, "cannot simulate graph with cycle").
			WithContext(logger.FieldLabel, opts.Label)
	}

	r := newRun(s, g)
	total, iterations, err := r.execute()
	if err != nil {
		if ge, ok := grapherr.As(err); ok {
			ge.WithContext(logger.FieldLabel, opts.Label)
		}
		return nil, err
	}

	result := &Result{
		Label:    opts.Label,
		TimeInMs: total,
		Timings:  r.timings(),
	}
	s.logger.Debugw("simulated graph",
		logger.FieldLabel, opts.Label,
		logger.FieldNodeCount, g.Len(),
		logger.FieldIterations, iterations,
		logger.FieldSimulatedMS, total,
	)
	if s.logNodeTimings {
		for _, tn := range result.Sorted() {
			s.logger.Debugw("simulated node",
				logger.FieldLabel, opts.Label,
				logger.FieldNodeID, tn.Node.ID(),
				logger.FieldNodeType, string(tn.Node.Type()),
				logger.FieldStartTime, tn.Timing.StartTime,
				logger.FieldEndTime, tn.Timing.EndTime,
			)
		}
	}
	return result, nil
}

// nodeState tracks one node through a single simulation.
type nodeState struct {
	queuedTime           float64
	startTime            float64
	endTime              float64
	timeElapsed          float64
	timeElapsedOvershoot float64
	bytesDownloaded      float64
	estimatedTimeElapsed float64
	connectionTiming     *ConnectionTiming
}

// run is the private state of one Simulate call.
type run struct {
	sim        *Simulator
	nodes      []graph.Node
	order      map[graph.Node]int
	states     map[graph.Node]*nodeState
	ready      []graph.Node
	inProgress []graph.Node
	complete   map[graph.Node]struct{}
	dns        *dnsCache
	pool       *connectionPool
	cpuBusy    int
	network    int
}

func newRun(s *Simulator, g *graph.Graph) *run {
	nodes := g.Nodes()
	r := &run{
		sim:      s,
		nodes:    nodes,
		order:    make(map[graph.Node]int, len(nodes)),
		states:   make(map[graph.Node]*nodeState, len(nodes)),
		complete: make(map[graph.Node]struct{}, len(nodes)),
		dns:      newDNSCache(s.profile.RTTMs),
	}
	for i, n := range nodes {
		r.order[n] = i
	}
	r.pool = newConnectionPool(g.NetworkNodes(), poolOptions{
		rtt:                  s.profile.RTTMs,
		throughput:           s.profile.throughputBitsPerSecond(),
		connectionsPerOrigin: s.connectionsPerOrigin,
		analysis:             s.analysis,
	})
	return r
}

func priorityRank(n graph.Node) int {
	if nn, ok := n.(*graph.NetworkNode); ok {
		return nn.Record().Priority.Rank()
	}
	return 0
}

// startsBefore orders the ready queue: ready time, CPU before network,
// higher priority first, then discovery order (observed start time, then
// traversal order).
func (r *run) startsBefore(a, b graph.Node) bool {
	if qa, qb := r.states[a].queuedTime, r.states[b].queuedTime; qa != qb {
		return qa < qb
	}
	aCPU, bCPU := a.Type() == graph.TypeCPU, b.Type() == graph.TypeCPU
	if aCPU != bCPU {
		return aCPU
	}
	if pa, pb := priorityRank(a), priorityRank(b); pa != pb {
		return pa > pb
	}
	if a.StartTime() != b.StartTime() {
		return a.StartTime() < b.StartTime()
	}
	return r.order[a] < r.order[b]
}

func (r *run) markReady(n graph.Node, queuedTime float64) {
	r.states[n] = &nodeState{queuedTime: queuedTime}
	i := sort.Search(len(r.ready), func(i int) bool { return r.startsBefore(n, r.ready[i]) })
	r.ready = append(r.ready, nil)
	copy(r.ready[i+1:], r.ready[i:])
	r.ready[i] = n
}

func (r *run) markInProgress(n graph.Node, now float64) {
	for i, m := range r.ready {
		if m == n {
			r.ready = append(r.ready[:i], r.ready[i+1:]...)
			break
		}
	}
	r.inProgress = append(r.inProgress, n)
	r.states[n].startTime = now
	if n.Type() == graph.TypeCPU {
		r.cpuBusy++
	} else if nn := n.(*graph.NetworkNode); !nn.IsConnectionless() {
		r.network++
	}
}

func (r *run) markComplete(n graph.Node, endTime float64, timing *ConnectionTiming) {
	for i, m := range r.inProgress {
		if m == n {
			r.inProgress = append(r.inProgress[:i], r.inProgress[i+1:]...)
			break
		}
	}
	state := r.states[n]
	state.endTime = endTime
	state.connectionTiming = timing
	r.complete[n] = struct{}{}

	if n.Type() == graph.TypeCPU {
		r.cpuBusy--
	} else if nn := n.(*graph.NetworkNode); !nn.IsConnectionless() {
		r.network--
		r.pool.release(nn)
	}

	for _, dependent := range n.Dependents() {
		if r.allComplete(dependent.Dependencies()) {
			r.markReady(dependent, endTime)
		}
	}
}

func (r *run) allComplete(nodes []graph.Node) bool {
	for _, n := range nodes {
		if _, ok := r.complete[n]; !ok {
			return false
		}
	}
	return true
}

func (r *run) startIfPossible(n graph.Node, now float64) {
	if n.Type() == graph.TypeCPU {
		if r.cpuBusy == 0 {
			r.markInProgress(n, now)
		}
		return
	}

	nn := n.(*graph.NetworkNode)
	if !nn.IsConnectionless() {
		if r.sim.maxConcurrent > 0 && r.network >= r.sim.maxConcurrent {
			return
		}
		if r.pool.acquire(nn) == nil {
			return
		}
	}
	r.markInProgress(n, now)
}

// updateNetworkCapacity shares the profile throughput equally between
// every request holding a connection.
func (r *run) updateNetworkCapacity() {
	if r.network == 0 {
		return
	}
	share := r.sim.profile.throughputBitsPerSecond() / float64(r.network)
	for _, n := range r.inProgress {
		if nn, ok := n.(*graph.NetworkNode); ok {
			if c := r.pool.connectionFor(nn); c != nil {
				c.SetThroughput(share)
			}
		}
	}
}

func (r *run) cpuDuration(n *graph.CPUNode) float64 {
	multiplier := r.sim.profile.CPUSlowdownMultiplier
	if n.DidPerformLayout() {
		multiplier *= r.sim.layoutTaskMultiplier
	}
	return math.Min(math.Round(n.Duration()*multiplier), MaximumCPUTaskDurationMs)
}

func resourceSizeMB(n *graph.NetworkNode) float64 {
	size := n.Record().ResourceSize
	if size == 0 {
		size = n.Record().TransferSize
	}
	return float64(size) / bytesPerMB
}

func (r *run) serverLatency(n *graph.NetworkNode) float64 {
	if v := n.Record().ServerResponseTime; v != nil {
		return *v
	}
	if v, ok := r.sim.analysis.ServerResponseTime(n.ConnectionKey().Origin); ok {
		return v
	}
	return DefaultServerResponseTimeMs
}

func (r *run) downloadOptions(nn *graph.NetworkNode, state *nodeState, maxTime float64) DownloadOptions {
	return DownloadOptions{
		TimeAlreadyElapsed:  state.timeElapsed,
		MaximumTimeToElapse: maxTime,
		DNSResolutionTime:   r.dns.timeUntilResolution(nn.Record().Host(), state.startTime, true),
		ServerLatency:       r.serverLatency(nn),
	}
}

func (r *run) estimateTimeRemaining(n graph.Node) float64 {
	state := r.states[n]
	var remaining float64

	switch node := n.(type) {
	case *graph.CPUNode:
		remaining = r.cpuDuration(node) - state.timeElapsed
	case *graph.NetworkNode:
		switch {
		case node.FromDiskCache():
			remaining = diskCacheBaseMs + diskCacheMsPerMB*resourceSizeMB(node) - state.timeElapsed
		case node.IsNonNetworkProtocol():
			remaining = nonNetworkProtocolBaseMs + nonNetworkProtocolMsPerMB*resourceSizeMB(node) - state.timeElapsed
		default:
			conn := r.pool.connectionFor(node)
			calc := conn.SimulateDownloadUntil(
				float64(node.Record().TransferSize)-state.bytesDownloaded,
				r.downloadOptions(node, state, math.Inf(1)),
			)
			remaining = calc.TimeElapsed
		}
	}

	state.estimatedTimeElapsed = remaining + state.timeElapsedOvershoot
	return state.estimatedTimeElapsed
}

func (r *run) nextCompletionTime() float64 {
	minimum := math.Inf(1)
	for _, n := range r.inProgress {
		minimum = math.Min(minimum, r.estimateTimeRemaining(n))
	}
	return minimum
}

func (r *run) updateProgress(n graph.Node, period, now float64) {
	state := r.states[n]
	finished := state.estimatedTimeElapsed == period

	nn, isNetwork := n.(*graph.NetworkNode)
	if !isNetwork || nn.IsConnectionless() {
		if finished {
			r.markComplete(n, now, nil)
		} else {
			state.timeElapsed += period
		}
		return
	}

	conn := r.pool.connectionFor(nn)
	calc := conn.SimulateDownloadUntil(
		float64(nn.Record().TransferSize)-state.bytesDownloaded,
		r.downloadOptions(nn, state, period-state.timeElapsedOvershoot),
	)
	conn.SetCongestionWindow(calc.CongestionWindow)
	conn.SetH2OverflowBytesDownloaded(calc.ExtraBytesDownloaded)

	if finished {
		conn.SetWarmed(true)
		timing := calc.Timing
		r.markComplete(n, now, &timing)
		return
	}
	state.timeElapsed += calc.TimeElapsed
	state.timeElapsedOvershoot += calc.TimeElapsed - period
	state.bytesDownloaded += calc.BytesDownloaded
}

// execute is the event loop: start what can start, advance the clock to the
// next completion, repeat until nothing is ready or running.
func (r *run) execute() (total float64, iterations int, err error) {
	r.markReady(r.nodes[0], 0)

	for len(r.ready) > 0 || len(r.inProgress) > 0 {
		for _, n := range append([]graph.Node(nil), r.ready...) {
			r.startIfPossible(n, total)
		}

		if len(r.inProgress) == 0 {
			return 0, iterations, grapherr.Simulation(grapherr.SubcategoryUnstartableNode,
				"failed to start any of %d ready nodes", len(r.ready)).
				WithContext("ready", len(r.ready))
		}

		r.updateNetworkCapacity()

		step := r.nextCompletionTime()
		if math.IsNaN(step) || math.IsInf(step, 0) || iterations > maximumIterations {
			return 0, iterations, grapherr.Simulation(grapherr.SubcategoryDepthExceeded,
				"simulation failed, depth exceeded after %d iterations", iterations).
				WithContext(logger.FieldIterations, iterations)
		}
		total += step
		iterations++

		for _, n := range append([]graph.Node(nil), r.inProgress...) {
			r.updateProgress(n, step, total)
		}
	}

	if len(r.complete) != len(r.nodes) {
		var pending []string
		for _, n := range r.nodes {
			if _, ok := r.complete[n]; !ok {
				pending = append(pending, n.ID())
			}
		}
		sort.Strings(pending)
		return 0, iterations, grapherr.Simulation(grapherr.SubcategoryUnreachedNodes,
			"%d nodes never completed", len(pending)).
			WithContext("nodes", pending)
	}
	return total, iterations, nil
}

func (r *run) timings() map[graph.Node]NodeTiming {
	out := make(map[graph.Node]NodeTiming, len(r.states))
	for n, s := range r.states {
		out[n] = NodeTiming{
			QueuedTime:       s.queuedTime,
			StartTime:        s.startTime,
			EndTime:          s.endTime,
			Duration:         s.endTime - s.startTime,
			ConnectionTiming: s.connectionTiming,
		}
	}
	return out
}
