// Package metrics turns simulations into metric estimates. Every metric
// derives an optimistic and a pessimistic graph from the canonical graph,
// simulates both, and blends the two times with fixed coefficients.
package metrics

import (
	"github.com/trannam110702/lighthouse-sub001/graph"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// Kind names a metric.
type Kind string

const (
	FirstContentfulPaint   Kind = "FirstContentfulPaint"
	LargestContentfulPaint Kind = "LargestContentfulPaint"
	Interactive            Kind = "Interactive"
	SpeedIndex             Kind = "SpeedIndex"
	MaxPotentialFID        Kind = "MaxPotentialFID"
	TotalBlockingTime      Kind = "TotalBlockingTime"
)

// Coefficients weight the two simulated bounds of a metric.
type Coefficients struct {
	Intercept   float64 `json:"intercept"`
	Optimistic  float64 `json:"optimistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// Estimate is one bound of a metric and the simulation it came from.
type Estimate struct {
	TimeInMs float64
	Timings  map[graph.Node]simulator.NodeTiming
}

// Result is the estimate of one metric. It may be cached and shared, so
// callers must not modify it.
type Result struct {
	Kind             Kind
	Timing           float64
	Optimistic       Estimate
	Pessimistic      Estimate
	OptimisticGraph  *graph.Graph
	PessimisticGraph *graph.Graph
}

// Dependencies holds the already computed results a metric builds on.
type Dependencies map[Kind]*Result

// Get returns the result for k, or a missing input error naming it.
func (d Dependencies) Get(k Kind) (*Result, error) {
	if r, ok := d[k]; ok && r != nil {
		return r, nil
	}
	return nil, grapherr.MissingInput(string(k))
}

// Extras is passed to Estimate alongside each simulation.
type Extras struct {
	// Optimistic is set for the optimistic simulation.
	Optimistic   bool
	Navigation   *trace.Navigation
	Dependencies Dependencies
}

// Metric is the capability each metric kind implements.
type Metric interface {
	Kind() Kind
	// Dependencies lists the metrics that must be computed first.
	Dependencies() []Kind
	Coefficients(rttMs float64) Coefficients
	OptimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error)
	PessimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error)
	Estimate(sim *simulator.Result, extras Extras) (Estimate, error)
	// Finalize adjusts the blended timing once it is known.
	Finalize(r *Result, deps Dependencies) error
}

// Simulator runs graphs for ComputeMetric. *simulator.Simulator implements it.
type Simulator interface {
	Simulate(g *graph.Graph, opts simulator.SimulateOptions) (*simulator.Result, error)
	Profile() simulator.Profile
}

// baseMetric supplies the behaviour most metrics share: both bounds run on
// the whole graph, the estimate is the total simulated time, nothing to
// finalize.
type baseMetric struct {
	coefficients Coefficients
}

func (baseMetric) Dependencies() []Kind { return nil }

func (m baseMetric) Coefficients(float64) Coefficients { return m.coefficients }

func (baseMetric) OptimisticGraph(g *graph.Graph, _ *trace.Navigation) (*graph.Graph, error) {
	return g.Clone(nil)
}

func (baseMetric) PessimisticGraph(g *graph.Graph, _ *trace.Navigation) (*graph.Graph, error) {
	return g.Clone(nil)
}

func (baseMetric) Estimate(sim *simulator.Result, _ Extras) (Estimate, error) {
	return estimateOf(sim, sim.TimeInMs), nil
}

func (baseMetric) Finalize(*Result, Dependencies) error { return nil }

// sortedTimings orders timings by start, end and node id so sums over them
// are reproducible.
func sortedTimings(timings map[graph.Node]simulator.NodeTiming) []simulator.TimedNode {
	return (&simulator.Result{Timings: timings}).Sorted()
}

func estimateOf(sim *simulator.Result, timeInMs float64) Estimate {
	return Estimate{TimeInMs: timeInMs, Timings: sim.Timings}
}

// atLeastFirstContentfulPaint clamps r to the FCP timing.
func atLeastFirstContentfulPaint(r *Result, deps Dependencies) error {
	fcp, err := deps.Get(FirstContentfulPaint)
	if err != nil {
		return err
	}
	if fcp.Timing > r.Timing {
		r.Timing = fcp.Timing
	}
	return nil
}
