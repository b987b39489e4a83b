package metrics

import (
	"math"

	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// Tasks at least this long may be long tasks once throttled.
const minimumInteractiveCPUTaskMs = 20

// LongTaskThresholdMs is the duration above which a simulated task counts
// as a long task.
const LongTaskThresholdMs = 50

type interactive struct{ baseMetric }

func (interactive) Kind() Kind { return Interactive }

func (interactive) Dependencies() []Kind { return []Kind{FirstContentfulPaint} }

func (interactive) Coefficients(float64) Coefficients {
	return Coefficients{Intercept: 0, Optimistic: 0.45, Pessimistic: 0.55}
}

// OptimisticGraph keeps anything that might become a long task, plus
// scripts and important non-image requests.
func (interactive) OptimisticGraph(g *graph.Graph, _ *trace.Navigation) (*graph.Graph, error) {
	return g.Clone(func(n graph.Node) bool {
		switch node := n.(type) {
		case *graph.CPUNode:
			return node.Duration() > minimumInteractiveCPUTaskMs
		case *graph.NetworkNode:
			r := node.Record()
			if r.ResourceType == trace.ResourceImage {
				return false
			}
			return r.ResourceType == trace.ResourceScript ||
				r.Priority == trace.PriorityHigh ||
				r.Priority == trace.PriorityVeryHigh
		}
		return false
	})
}

// Estimate is the end of the last long task, but never before FCP.
func (interactive) Estimate(sim *simulator.Result, extras Extras) (Estimate, error) {
	fcp, err := extras.Dependencies.Get(FirstContentfulPaint)
	if err != nil {
		return Estimate{}, err
	}
	minimum := fcp.Pessimistic.TimeInMs
	if extras.Optimistic {
		minimum = fcp.Optimistic.TimeInMs
	}
	return estimateOf(sim, math.Max(minimum, LastLongTaskEndTime(sim.Timings, LongTaskThresholdMs))), nil
}

func (interactive) Finalize(r *Result, deps Dependencies) error {
	return atLeastFirstContentfulPaint(r, deps)
}

// LastLongTaskEndTime returns when the last CPU task longer than
// thresholdMs finished, or 0.
func LastLongTaskEndTime(timings map[graph.Node]simulator.NodeTiming, thresholdMs float64) float64 {
	last := 0.0
	for n, t := range timings {
		if n.Type() == graph.TypeCPU && t.Duration > thresholdMs {
			last = math.Max(last, t.EndTime)
		}
	}
	return last
}
