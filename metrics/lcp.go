package metrics

import (
	"math"

	"github.com/trannam110702/lighthouse-sub001/graph"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

type largestContentfulPaint struct{ baseMetric }

func (largestContentfulPaint) Kind() Kind { return LargestContentfulPaint }

func (largestContentfulPaint) Dependencies() []Kind { return []Kind{FirstContentfulPaint} }

func (largestContentfulPaint) Coefficients(float64) Coefficients {
	return Coefficients{Intercept: 0, Optimistic: 0.5, Pessimistic: 0.5}
}

func missingTimestamp(name string) error {
	return grapherr.MissingInput(name)
}

func lcpCutoff(nav *trace.Navigation) (float64, error) {
	if nav == nil || nav.LargestContentfulPaint == nil {
		return 0, missingTimestamp("largest_contentful_paint")
	}
	return *nav.LargestContentfulPaint, nil
}

// isNotLowPriorityImage keeps everything except Low and VeryLow images,
// which are almost always offscreen.
func isNotLowPriorityImage(n graph.Node) bool {
	nn, ok := n.(*graph.NetworkNode)
	if !ok {
		return true
	}
	r := nn.Record()
	lowPriority := r.Priority == trace.PriorityLow || r.Priority == trace.PriorityVeryLow
	return r.ResourceType != trace.ResourceImage || !lowPriority
}

func (largestContentfulPaint) OptimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error) {
	cutoff, err := lcpCutoff(nav)
	if err != nil {
		return nil, err
	}
	return FirstPaintBasedGraph(g, FirstPaintOptions{
		Cutoff:                cutoff,
		TreatAsRenderBlocking: func(n *graph.NetworkNode) bool { return isNotLowPriorityImage(n) },
	})
}

func (largestContentfulPaint) PessimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error) {
	cutoff, err := lcpCutoff(nav)
	if err != nil {
		return nil, err
	}
	return FirstPaintBasedGraph(g, FirstPaintOptions{
		Cutoff:                cutoff,
		TreatAsRenderBlocking: func(*graph.NetworkNode) bool { return true },
		ExtraCPU:              (*graph.CPUNode).DidPerformLayout,
	})
}

// Estimate is the last end time of anything but a low priority image.
func (largestContentfulPaint) Estimate(sim *simulator.Result, _ Extras) (Estimate, error) {
	last := 0.0
	for n, t := range sim.Timings {
		if isNotLowPriorityImage(n) {
			last = math.Max(last, t.EndTime)
		}
	}
	return estimateOf(sim, last), nil
}

func (largestContentfulPaint) Finalize(r *Result, deps Dependencies) error {
	return atLeastFirstContentfulPaint(r, deps)
}
