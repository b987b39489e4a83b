package metrics

import (
	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

type totalBlockingTime struct{ baseMetric }

func (totalBlockingTime) Kind() Kind { return TotalBlockingTime }

func (totalBlockingTime) Dependencies() []Kind {
	return []Kind{FirstContentfulPaint, Interactive}
}

func (totalBlockingTime) Coefficients(float64) Coefficients {
	return Coefficients{Intercept: 0, Optimistic: 0.5, Pessimistic: 0.5}
}

// Estimate sums blocking time between FCP and TTI. The optimistic bound
// pairs the later FCP with the earlier TTI, so its window is the narrower.
func (totalBlockingTime) Estimate(sim *simulator.Result, extras Extras) (Estimate, error) {
	w, err := blockingWindow(extras.Dependencies, extras.Optimistic)
	if err != nil {
		return Estimate{}, err
	}
	events := TopLevelEvents(sim.Timings, BlockingThresholdMs)
	return estimateOf(sim, SumOfBlockingTime(events, w.start, w.end)), nil
}

type window struct{ start, end float64 }

func blockingWindow(deps Dependencies, optimistic bool) (window, error) {
	fcp, err := deps.Get(FirstContentfulPaint)
	if err != nil {
		return window{}, err
	}
	tti, err := deps.Get(Interactive)
	if err != nil {
		return window{}, err
	}
	if optimistic {
		return window{start: fcp.Pessimistic.TimeInMs, end: tti.Optimistic.TimeInMs}, nil
	}
	return window{start: fcp.Optimistic.TimeInMs, end: tti.Pessimistic.TimeInMs}, nil
}

// TopLevelEvents returns the simulated CPU tasks lasting at least minDurationMs.
func TopLevelEvents(timings map[graph.Node]simulator.NodeTiming, minDurationMs float64) []BlockingEvent {
	var events []BlockingEvent
	for _, tn := range sortedTimings(timings) {
		n, t := tn.Node, tn.Timing
		if n.Type() != graph.TypeCPU || t.Duration < minDurationMs {
			continue
		}
		events = append(events, BlockingEvent{Start: t.StartTime, End: t.EndTime, Duration: t.Duration})
	}
	return events
}
