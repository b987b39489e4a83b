package metrics

import (
	"context"
	"math"

	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// ComputeOptions are per computation.
type ComputeOptions struct {
	// RunID is appended to simulation labels so concurrent runs can be told
	// apart in logs.
	RunID string
}

// ComputeMetric simulates both bounds of m on g and blends them.
// The context is checked between simulations only.
func ComputeMetric(ctx context.Context, m Metric, g *graph.Graph, nav *trace.Navigation, sim Simulator, deps Dependencies, opts ComputeOptions) (*Result, error) {
	kind := m.Kind()

	optimisticGraph, err := m.OptimisticGraph(g, nav)
	if err != nil {
		return nil, errors.Wrapf(err, "optimistic graph for %s", kind)
	}
	pessimisticGraph, err := m.PessimisticGraph(g, nav)
	if err != nil {
		return nil, errors.Wrapf(err, "pessimistic graph for %s", kind)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, err.Error())
	}
	optimisticSim, err := sim.Simulate(optimisticGraph, simulator.SimulateOptions{Label: label("optimistic", kind, opts.RunID)})
	if err != nil {
		return nil, errors.Wrapf(err, "simulate optimistic %s", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, err.Error())
	}
	pessimisticSim, err := sim.Simulate(pessimisticGraph, simulator.SimulateOptions{Label: label("pessimistic", kind, opts.RunID)})
	if err != nil {
		return nil, errors.Wrapf(err, "simulate pessimistic %s", kind)
	}

	optimistic, err := m.Estimate(optimisticSim, Extras{Optimistic: true, Navigation: nav, Dependencies: deps})
	if err != nil {
		return nil, errors.Wrapf(err, "optimistic estimate for %s", kind)
	}
	pessimistic, err := m.Estimate(pessimisticSim, Extras{Optimistic: false, Navigation: nav, Dependencies: deps})
	if err != nil {
		return nil, errors.Wrapf(err, "pessimistic estimate for %s", kind)
	}

	result := &Result{
		Kind:             kind,
		Timing:           Blend(m.Coefficients(sim.Profile().RTTMs), optimistic.TimeInMs, pessimistic.TimeInMs),
		Optimistic:       optimistic,
		Pessimistic:      pessimistic,
		OptimisticGraph:  optimisticGraph,
		PessimisticGraph: pessimisticGraph,
	}
	if err := m.Finalize(result, deps); err != nil {
		return nil, errors.Wrapf(err, "finalize %s", kind)
	}
	return result, nil
}

func label(bound string, kind Kind, runID string) string {
	if runID == "" {
		return bound + string(kind)
	}
	return bound + string(kind) + "/" + runID
}

// InterceptMultiplier damps a positive intercept for estimates under one
// second; it grows linearly from 0 at 0 ms to 1 at 1000 ms.
func InterceptMultiplier(c Coefficients, optimisticMs float64) float64 {
	if c.Intercept > 0 {
		return math.Min(1, optimisticMs/1000)
	}
	return 1
}

// Blend combines the two bounds into one timing.
func Blend(c Coefficients, optimisticMs, pessimisticMs float64) float64 {
	return c.Intercept*InterceptMultiplier(c, optimisticMs) +
		c.Optimistic*optimisticMs +
		c.Pessimistic*pessimisticMs
}
