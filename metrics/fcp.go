package metrics

import (
	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

type firstContentfulPaint struct{ baseMetric }

func (firstContentfulPaint) Kind() Kind { return FirstContentfulPaint }

func (firstContentfulPaint) Coefficients(float64) Coefficients {
	return Coefficients{Intercept: 0, Optimistic: 0.5, Pessimistic: 0.5}
}

func fcpCutoff(nav *trace.Navigation) (float64, error) {
	if nav == nil || nav.FirstContentfulPaint == nil {
		return 0, missingTimestamp("first_contentful_paint")
	}
	return *nav.FirstContentfulPaint, nil
}

// OptimisticGraph leaves out render blocking requests a script inserted:
// they usually matter for content but do not block rendering.
func (firstContentfulPaint) OptimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error) {
	cutoff, err := fcpCutoff(nav)
	if err != nil {
		return nil, err
	}
	return FirstPaintBasedGraph(g, FirstPaintOptions{
		Cutoff: cutoff,
		TreatAsRenderBlocking: func(n *graph.NetworkNode) bool {
			return n.HasRenderBlockingPriority() && n.InitiatorType() != trace.InitiatorScript
		},
	})
}

func (firstContentfulPaint) PessimisticGraph(g *graph.Graph, nav *trace.Navigation) (*graph.Graph, error) {
	cutoff, err := fcpCutoff(nav)
	if err != nil {
		return nil, err
	}
	return FirstPaintBasedGraph(g, FirstPaintOptions{
		Cutoff:                cutoff,
		TreatAsRenderBlocking: (*graph.NetworkNode).HasRenderBlockingPriority,
		ExtraCPU:              (*graph.CPUNode).DidPerformLayout,
	})
}
