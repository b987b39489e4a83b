package metrics

import (
	"math"

	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// minimumFIDMs is one frame.
const minimumFIDMs = 16

type maxPotentialFID struct{ baseMetric }

func (maxPotentialFID) Kind() Kind { return MaxPotentialFID }

func (maxPotentialFID) Dependencies() []Kind { return []Kind{FirstContentfulPaint} }

func (maxPotentialFID) Coefficients(float64) Coefficients {
	return Coefficients{Intercept: 0, Optimistic: 0.5, Pessimistic: 0.5}
}

// Estimate is the longest task ending after FCP. The optimistic bound uses
// the later, pessimistic FCP so fewer tasks qualify.
func (maxPotentialFID) Estimate(sim *simulator.Result, extras Extras) (Estimate, error) {
	fcp, err := extras.Dependencies.Get(FirstContentfulPaint)
	if err != nil {
		return Estimate{}, err
	}
	fcpMs := fcp.Optimistic.TimeInMs
	if extras.Optimistic {
		fcpMs = fcp.Pessimistic.TimeInMs
	}

	longest := float64(minimumFIDMs)
	for n, t := range sim.Timings {
		if n.Type() == graph.TypeCPU && t.EndTime > fcpMs {
			longest = math.Max(longest, t.Duration)
		}
	}
	return estimateOf(sim, longest), nil
}
