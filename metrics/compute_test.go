package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/graph"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	lanterntest "github.com/trannam110702/lighthouse-sub001/internal/testing"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// fakeSimulator answers each bound with a fixed total time.
type fakeSimulator struct {
	optimistic, pessimistic float64
	labels                  []string
}

func (f *fakeSimulator) Simulate(g *graph.Graph, opts simulator.SimulateOptions) (*simulator.Result, error) {
	f.labels = append(f.labels, opts.Label)
	total := f.pessimistic
	if strings.HasPrefix(opts.Label, "optimistic") {
		total = f.optimistic
	}
	return &simulator.Result{Label: opts.Label, TimeInMs: total, Timings: map[graph.Node]simulator.NodeTiming{}}, nil
}

func (f *fakeSimulator) Profile() simulator.Profile {
	return simulator.Profile{RTTMs: 150, ThroughputKbps: 1600, CPUSlowdownMultiplier: 4}
}

type interceptMetric struct{ baseMetric }

func (interceptMetric) Kind() Kind { return "Intercept" }

func singleNodeGraph() *graph.Graph {
	return graph.New(graph.NewNetworkNode(lanterntest.Record("1", "https://example.com/", lanterntest.Document("F"))))
}

func TestComputeMetricBlendsBounds(t *testing.T) {
	m := interceptMetric{baseMetric{coefficients: Coefficients{Intercept: 1000, Optimistic: 0.5, Pessimistic: 0.5}}}
	sim := &fakeSimulator{optimistic: 200, pessimistic: 400}

	res, err := ComputeMetric(context.Background(), m, singleNodeGraph(), nil, sim, nil, ComputeOptions{RunID: "run-1"})
	require.NoError(t, err)

	// 1000 x (200/1000) + 0.5 x 200 + 0.5 x 400
	assert.Equal(t, float64(500), res.Timing)
	assert.Equal(t, float64(200), res.Optimistic.TimeInMs)
	assert.Equal(t, float64(400), res.Pessimistic.TimeInMs)
	assert.Equal(t, Kind("Intercept"), res.Kind)
	assert.NotNil(t, res.OptimisticGraph)
	assert.NotNil(t, res.PessimisticGraph)
	assert.Equal(t, []string{"optimisticIntercept/run-1", "pessimisticIntercept/run-1"}, sim.labels)
}

func TestInterceptMultiplier(t *testing.T) {
	positive := Coefficients{Intercept: 1000, Optimistic: 0.5, Pessimistic: 0.5}
	negative := Coefficients{Intercept: -250, Optimistic: 1.4, Pessimistic: 0.65}

	tests := []struct {
		name       string
		c          Coefficients
		optimistic float64
		want       float64
	}{
		{"zero optimistic damps fully", positive, 0, 0},
		{"half second", positive, 500, 0.5},
		{"one second", positive, 1000, 1},
		{"beyond one second", positive, 4000, 1},
		{"negative intercept is never damped", negative, 0, 1},
		{"zero intercept", Coefficients{Optimistic: 0.5, Pessimistic: 0.5}, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterceptMultiplier(tt.c, tt.optimistic))
		})
	}
}

func TestComputeMetricCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := &fakeSimulator{}
	_, err := ComputeMetric(ctx, firstContentfulPaint{}, singleNodeGraph(), lanterntest.Navigation("https://example.com/", 100, 200), sim, nil, ComputeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.Empty(t, sim.labels)
}

func TestComputeMetricMissingDependency(t *testing.T) {
	_, err := ComputeMetric(context.Background(), interactive{}, singleNodeGraph(), nil, &fakeSimulator{}, nil, ComputeOptions{})
	require.Error(t, err)
	assert.True(t, grapherr.IsMissingInput(err))
	assert.Equal(t, string(FirstContentfulPaint), grapherr.MissingInputName(err))
}

func TestComputeMetricPropagatesSimulationErrors(t *testing.T) {
	root := graph.NewNetworkNode(lanterntest.Record("1", "https://example.com/", lanterntest.Document("F")))
	a := graph.NewNetworkNode(lanterntest.Record("2", "https://example.com/a.js"))
	b := graph.NewNetworkNode(lanterntest.Record("3", "https://example.com/b.js"))
	a.AddDependency(root)
	b.AddDependency(a)
	a.AddDependency(b)

	sim, err := simulator.New(simulator.Options{Profile: simulator.Profile{RTTMs: 40, ThroughputKbps: 10240, CPUSlowdownMultiplier: 1}})
	require.NoError(t, err)

	_, err = ComputeMetric(context.Background(), totalBlockingTime{}, graph.New(root), nil, sim, nil, ComputeOptions{})
	require.Error(t, err)
	assert.True(t, grapherr.IsSimulation(err))
}
