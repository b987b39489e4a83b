package metrics

import (
	"math"

	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// Speed Index coefficients are tuned at 150 ms RTT and relax to an even
// blend with no intercept at 30 ms.
const (
	speedIndexBaselineRTTMs = 30
	speedIndexDefaultRTTMs  = 150
)

var speedIndexCoefficients = Coefficients{Intercept: -250, Optimistic: 1.4, Pessimistic: 0.65}

type speedIndex struct{ baseMetric }

func (speedIndex) Kind() Kind { return SpeedIndex }

func (speedIndex) Dependencies() []Kind { return []Kind{FirstContentfulPaint} }

// Coefficients interpolates linearly in RTT between the baseline and the
// default coefficients.
func (speedIndex) Coefficients(rttMs float64) Coefficients {
	multiplier := math.Max((rttMs-speedIndexBaselineRTTMs)/(speedIndexDefaultRTTMs-speedIndexBaselineRTTMs), 0)
	return Coefficients{
		Intercept:   speedIndexCoefficients.Intercept * multiplier,
		Optimistic:  0.5 + (speedIndexCoefficients.Optimistic-0.5)*multiplier,
		Pessimistic: 0.5 + (speedIndexCoefficients.Pessimistic-0.5)*multiplier,
	}
}

// Estimate uses the observed Speed Index for the optimistic bound and a
// layout weighted estimate for the pessimistic one.
func (speedIndex) Estimate(sim *simulator.Result, extras Extras) (Estimate, error) {
	fcp, err := extras.Dependencies.Get(FirstContentfulPaint)
	if err != nil {
		return Estimate{}, err
	}
	if extras.Optimistic {
		observed, err := observedSpeedIndex(extras.Navigation)
		if err != nil {
			return Estimate{}, err
		}
		return estimateOf(sim, observed), nil
	}
	return estimateOf(sim, LayoutBasedSpeedIndex(sim.Timings, fcp.Pessimistic.TimeInMs)), nil
}

func observedSpeedIndex(nav *trace.Navigation) (float64, error) {
	if nav == nil || nav.ObservedSpeedIndex == nil {
		return 0, missingTimestamp("observed_speed_index")
	}
	return *nav.ObservedSpeedIndex, nil
}

func (speedIndex) Finalize(r *Result, deps Dependencies) error {
	return atLeastFirstContentfulPaint(r, deps)
}

// LayoutBasedSpeedIndex averages the end times of layout tasks, each no
// earlier than FCP, weighted by log2 of the task duration. Without layout
// it is the FCP time.
func LayoutBasedSpeedIndex(timings map[graph.Node]simulator.NodeTiming, fcpMs float64) float64 {
	var weightedTime, totalWeight float64
	for _, tn := range sortedTimings(timings) {
		t := tn.Timing
		cpu, ok := tn.Node.(*graph.CPUNode)
		if !ok || !cpu.DidPerformLayout() {
			continue
		}
		weight := math.Max(math.Log2(t.EndTime-t.StartTime), 0)
		weightedTime += weight * math.Max(t.EndTime, fcpMs)
		totalWeight += weight
	}
	if totalWeight == 0 {
		return fcpMs
	}
	return weightedTime / totalWeight
}
