package engine

import (
	"github.com/trannam110702/lighthouse-sub001/metrics"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// Report is the outcome of one Run. Results hold every computed kind,
// requested or pulled in as a dependency.
type Report struct {
	RunID     string
	Profile   simulator.Profile
	Requested []metrics.Kind
	NodeCount int
	Results   map[metrics.Kind]*metrics.Result
	Keys      map[metrics.Kind]string
	// Memoized marks results served from this engine's memory.
	Memoized map[metrics.Kind]bool
	// Persisted marks results whose summary was already in the store.
	Persisted map[metrics.Kind]bool
	// Blocking is set when TotalBlockingTime was computed.
	Blocking *metrics.BlockingSummary
}

func newReport(runID string, p simulator.Profile, requested []metrics.Kind, nodes int) *Report {
	return &Report{
		RunID:     runID,
		Profile:   p,
		Requested: append([]metrics.Kind(nil), requested...),
		NodeCount: nodes,
		Results:   make(map[metrics.Kind]*metrics.Result),
		Keys:      make(map[metrics.Kind]string),
		Memoized:  make(map[metrics.Kind]bool),
		Persisted: make(map[metrics.Kind]bool),
	}
}

func (r *Report) add(k metrics.Kind, key string, res *metrics.Result, memoized, persisted bool) {
	r.Results[k] = res
	r.Keys[k] = key
	r.Memoized[k] = memoized
	r.Persisted[k] = persisted
}

// Result returns the result for k.
func (r *Report) Result(k metrics.Kind) (*metrics.Result, bool) {
	res, ok := r.Results[k]
	return res, ok
}

// Ordered returns the computed kinds in registry order.
func (r *Report) Ordered() []metrics.Kind {
	var out []metrics.Kind
	for _, k := range metrics.Kinds() {
		if _, ok := r.Results[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
