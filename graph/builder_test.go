package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	lanterntest "github.com/trannam110702/lighthouse-sub001/internal/testing"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

const docURL = "https://example.com/"

func newTestBuilder() *Builder {
	return NewBuilder(nil)
}

func mustFind(t *testing.T, g *Graph, id string) Node {
	t.Helper()
	n, ok := g.Find(id)
	require.True(t, ok, "node %s missing from graph", id)
	return n
}

func TestBuildMainResourceNotFound(t *testing.T) {
	records := []*trace.Record{
		lanterntest.Record("1", "https://other.com/", lanterntest.Document("F")),
	}

	_, err := newTestBuilder().Build(records, nil, lanterntest.Navigation(docURL, 0, 0))
	require.Error(t, err)
	assert.True(t, grapherr.IsConstruction(err))
	assert.True(t, errors.Is(err, grapherr.ErrGraphConstruction))
	ge, _ := grapherr.As(err)
	assert.Equal(t, grapherr.SubcategoryMainResourceNotFound, ge.Subcategory)
	assert.Contains(t, err.Error(), "main resource not found")

	_, err = newTestBuilder().Build(records, nil, nil)
	assert.True(t, grapherr.IsConstruction(err))
}

func TestBuildSingleDocument(t *testing.T) {
	records := []*trace.Record{lanterntest.Record("1", docURL, lanterntest.Document("F"))}

	g, err := newTestBuilder().Build(records, nil, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Root().IsMainDocument())
}

func TestBuildFallsBackToMainFrameDocument(t *testing.T) {
	records := []*trace.Record{lanterntest.Record("1", "https://example.com/landing", lanterntest.Document("F"))}
	nav := &trace.Navigation{MainDocumentURL: docURL, FrameID: "F"}

	g, err := newTestBuilder().Build(records, nil, nav)
	require.NoError(t, err)
	assert.Equal(t, "1", g.MainDocument().ID())
}

func TestBuildRedirectChain(t *testing.T) {
	records := []*trace.Record{
		lanterntest.Record("1", "http://example.com/", lanterntest.Document("F"), lanterntest.Timing(0, 50)),
		lanterntest.Record("2", docURL, lanterntest.Document("F"), lanterntest.RedirectedFrom("1"), lanterntest.Timing(50, 200)),
		lanterntest.Record("3", "https://example.com/app.js", lanterntest.OfType(trace.ResourceScript),
			lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(210, 300)),
	}

	g, err := newTestBuilder().Build(records, nil, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "1", g.Root().ID())
	assert.False(t, g.Root().IsMainDocument())
	assert.Equal(t, "2", g.MainDocument().ID())
	assert.Equal(t, []string{"1"}, ids(mustFind(t, g, "2").Dependencies()))
	assert.Equal(t, []string{"2"}, ids(mustFind(t, g, "3").Dependencies()))
}

func TestBuildNetworkInitiators(t *testing.T) {
	dup := "https://example.com/dup.js"
	records := []*trace.Record{
		lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 100)),
		lanterntest.Record("2", "https://example.com/app.js", lanterntest.OfType(trace.ResourceScript),
			lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(110, 140)),
		lanterntest.Record("3", "https://example.com/hero.png", lanterntest.OfType(trace.ResourceImage),
			lanterntest.InitiatedBy("2"), lanterntest.Timing(300, 400)),
		lanterntest.Record("4", "https://cdn.example.com/beacon", lanterntest.Timing(120, 130)),
		lanterntest.Record("5a", dup, lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(120, 150)),
		lanterntest.Record("5b", dup, lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(125, 150)),
		lanterntest.Record("6", "https://example.com/late.js",
			lanterntest.InitiatedByURL(trace.InitiatorScript, dup), lanterntest.Timing(400, 450)),
		lanterntest.Record("7", "https://example.com/stack.js",
			lanterntest.InitiatedByURL(trace.InitiatorScript, "", "https://example.com/app.js"), lanterntest.Timing(500, 550)),
	}

	g, err := newTestBuilder().Build(records, nil, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)

	tests := []struct {
		id   string
		deps []string
	}{
		{"2", []string{"1"}},
		{"3", []string{"2"}},
		{"4", []string{"1"}},
		{"6", []string{"1"}},
		{"7", []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.deps, ids(mustFind(t, g, tt.id).Dependencies()))
		})
	}
	assert.Equal(t, 8, g.Len())
}

func TestBuildLinksCPUNodes(t *testing.T) {
	appJS := "https://example.com/app.js"
	records := []*trace.Record{
		lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 100)),
		lanterntest.Record("2", appJS, lanterntest.OfType(trace.ResourceScript),
			lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(110, 140)),
		lanterntest.Record("7", "https://example.com/api", lanterntest.OfType(trace.ResourceXHR), lanterntest.Timing(420, 480)),
	}
	tasks := []*trace.Task{
		lanterntest.Task(150, 30, lanterntest.Event(trace.EventEvaluateScript, 150, appJS)),
		lanterntest.Task(200, 20, trace.TaskEvent{Name: trace.EventTimerInstall, StartTime: 201, TimerID: "t1"}),
		lanterntest.Task(300, 20, trace.TaskEvent{Name: trace.EventTimerFire, StartTime: 300, TimerID: "t1"}),
		lanterntest.Task(400, 15, trace.TaskEvent{Name: trace.EventResourceSendRequest, StartTime: 401, RequestID: "7"}),
		lanterntest.Task(500, 5),
		lanterntest.Task(600, 5, lanterntest.Event(trace.EventPaint, 601, "")),
	}

	g, err := newTestBuilder().Build(records, tasks, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)

	cpu := g.CPUNodes()
	require.Len(t, cpu, 5, "the short task without events is pruned")

	evaluate := mustFind(t, g, "cpu.0")
	assert.Equal(t, []string{"2"}, ids(evaluate.Dependencies()))

	install := mustFind(t, g, "cpu.1")
	assert.Equal(t, []string{"1"}, ids(install.Dependencies()))
	fire := mustFind(t, g, "cpu.2")
	assert.Equal(t, []string{"cpu.1"}, ids(fire.Dependencies()))

	send := mustFind(t, g, "cpu.3")
	assert.Contains(t, ids(mustFind(t, g, "7").Dependencies()), "cpu.3")
	assert.Equal(t, []string{"7"}, ids(send.Dependents()))

	_, ok := g.Find("cpu.4")
	assert.False(t, ok)
	paint := mustFind(t, g, "cpu.5")
	assert.Equal(t, []string{"1"}, ids(paint.Dependencies()))
}

func TestBuildURLDependencyTolerance(t *testing.T) {
	appJS := "https://example.com/app.js"
	records := []*trace.Record{
		lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 100)),
		lanterntest.Record("2", appJS, lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(110, 400)),
	}

	tests := []struct {
		name  string
		start float64
		want  string
	}{
		{"response finished before task", 450, "2"},
		{"response finishes within tolerance", 320, "2"},
		{"response finishes too late", 250, "1"},
		{"task starts before request", 100, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := []*trace.Task{lanterntest.Task(tt.start, 30, lanterntest.Event(trace.EventEvaluateScript, tt.start, appJS))}
			g, err := newTestBuilder().Build(records, tasks, lanterntest.Navigation(docURL, 0, 0))
			require.NoError(t, err)
			require.Len(t, g.CPUNodes(), 1)
			assert.Equal(t, []string{tt.want}, ids(g.CPUNodes()[0].Dependencies()))
		})
	}
}

func TestBuildMergesOverlappingTasks(t *testing.T) {
	records := []*trace.Record{lanterntest.Record("1", docURL, lanterntest.Document("F"))}
	tasks := []*trace.Task{
		lanterntest.Task(200, 50),
		lanterntest.Task(220, 60, lanterntest.Event(trace.EventLayout, 221, "")),
		lanterntest.Task(300, 0),
	}

	g, err := newTestBuilder().Build(records, tasks, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)
	require.Len(t, g.CPUNodes(), 1)

	n := g.CPUNodes()[0]
	assert.Equal(t, 200.0, n.StartTime())
	assert.Equal(t, 280.0, n.EndTime())
	assert.True(t, n.DidPerformLayout())
	assert.Empty(t, tasks[0].Events, "input tasks are not mutated")
}

func TestBuildRejectsInitiatorCycle(t *testing.T) {
	records := []*trace.Record{
		lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 100)),
		lanterntest.Record("2", "https://example.com/a.js", lanterntest.InitiatedBy("3"), lanterntest.Timing(110, 200)),
		lanterntest.Record("3", "https://example.com/b.js", lanterntest.InitiatedBy("2"), lanterntest.Timing(120, 210)),
		lanterntest.Record("4", "https://example.com/c.js", lanterntest.InitiatedBy("3"), lanterntest.Timing(220, 300)),
	}

	_, err := newTestBuilder().Build(records, nil, lanterntest.Navigation(docURL, 0, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, grapherr.ErrGraphConstruction))

	ge, ok := grapherr.As(err)
	require.True(t, ok)
	assert.Equal(t, grapherr.SubcategoryCycle, ge.Subcategory)
	assert.Equal(t, []string{"2", "3", "4"}, ge.Context["nodes"])
}

func TestBuildIsDeterministic(t *testing.T) {
	records := []*trace.Record{
		lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 100)),
		lanterntest.Record("2", "https://example.com/a.js", lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(110, 200)),
		lanterntest.Record("3", "https://example.com/b.css", lanterntest.InitiatedByURL(trace.InitiatorParser, docURL), lanterntest.Timing(110, 200)),
	}
	tasks := []*trace.Task{lanterntest.Task(210, 40, lanterntest.Event(trace.EventEvaluateScript, 210, "https://example.com/a.js"))}

	first, err := newTestBuilder().Build(records, tasks, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)
	second, err := newTestBuilder().Build(records, tasks, lanterntest.Navigation(docURL, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, ids(first.Nodes()), ids(second.Nodes()))
	assert.Equal(t, ids(first.SortedByStart()), ids(second.SortedByStart()))
	assert.Equal(t, []string{"1", "2", "3", "cpu.0"}, ids(first.SortedByStart()))
}
