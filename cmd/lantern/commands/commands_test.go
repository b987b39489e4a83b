package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/am"
	"github.com/trannam110702/lighthouse-sub001/engine"
	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	lanterntest "github.com/trannam110702/lighthouse-sub001/internal/testing"
	"github.com/trannam110702/lighthouse-sub001/logger"
	"github.com/trannam110702/lighthouse-sub001/metrics"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

func defaultConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"fcp,LCP", "tbt", "fcp", " "})
	require.NoError(t, err)
	assert.Equal(t, []metrics.Kind{metrics.FirstContentfulPaint, metrics.LargestContentfulPaint, metrics.TotalBlockingTime}, kinds)

	kinds, err = parseKinds(nil)
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = parseKinds([]string{"cls"})
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.True(t, grapherr.IsUnknownMetric(err))
}

func TestFormatError(t *testing.T) {
	_, err := parseKinds([]string{"cls"})
	require.Error(t, err)

	msg := FormatError(err)
	assert.True(t, strings.HasPrefix(msg, "unknown metric: "), msg)
	assert.Contains(t, msg, `"cls"`)
	assert.Contains(t, msg, "\nhint: known metrics: ")

	assert.Equal(t, "capture not found", FormatError(errors.New("capture not found")))
	assert.Equal(t, "", FormatError(nil))

	wrapped := errors.Wrap(grapherr.Construction(grapherr.SubcategoryCycle, "cycle detected"), "build graph")
	assert.Equal(t, "failed to build dependency graph: build graph: cycle detected", FormatError(wrapped))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(8), parseValue("8"))
	assert.Equal(t, 0.25, parseValue("0.25"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "desktopDense4G", parseValue("desktopDense4G"))
}

func TestMarshalConfig(t *testing.T) {
	cfg := defaultConfig(t)

	for _, format := range []string{"toml", "yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			data, err := marshalConfig(cfg, format)
			require.NoError(t, err)
			assert.Contains(t, string(data), "mobileSlow4G")
			assert.Contains(t, string(data), "connections_per_origin")
		})
	}

	_, err := marshalConfig(cfg, "xml")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestEngineConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Simulation.MaximumConcurrentRequests = 10

	assert.Equal(t, engine.Config{
		Workers:                   4,
		LayoutTaskMultiplier:      0.5,
		ConnectionsPerOrigin:      6,
		MaximumConcurrentRequests: 10,
		UseObservedOriginTiming:   true,
	}, engineConfig(cfg, logger.VerbosityDebug))

	assert.True(t, engineConfig(cfg, logger.VerbosityTrace).TraceSimulations)
}

func TestSimulateOutput(t *testing.T) {
	const docURL = "https://example.com/"
	nav := lanterntest.Navigation(docURL, 400, 600)
	capture := &trace.Capture{
		Navigation: *nav,
		Records: []*trace.Record{
			lanterntest.Record("1", docURL, lanterntest.Document("F"), lanterntest.Timing(0, 200)),
			lanterntest.Record("2", docURL+"app.js", lanterntest.OfType(trace.ResourceScript), lanterntest.WithPriority(trace.PriorityHigh),
				lanterntest.InitiatedBy("1"), lanterntest.Timing(210, 300)),
		},
		Tasks: []*trace.Task{
			lanterntest.Task(310, 40, lanterntest.Event(trace.EventEvaluateScript, 311, docURL+"app.js")),
		},
	}
	profile, err := simulator.Preset(simulator.PresetMobileSlow4G)
	require.NoError(t, err)

	report, err := engine.New(engine.Config{}).Run(context.Background(), capture, profile, metrics.LargestContentfulPaint)
	require.NoError(t, err)

	out := newSimulateOutput(report, simulator.PresetMobileSlow4G)
	require.Len(t, out.Metrics, 2)
	assert.Equal(t, metrics.FirstContentfulPaint, out.Metrics[0].Kind)
	assert.False(t, out.Metrics[0].Requested)
	assert.True(t, out.Metrics[1].Requested)

	rows := metricRows(out)
	require.Len(t, rows, 3)
	assert.True(t, strings.HasSuffix(rows[1][0], "(dependency)"))

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, out))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "mobileSlow4G", decoded["profile"])
	assert.NotContains(t, decoded, "blocking")
}

func TestBlockingRows(t *testing.T) {
	rows := blockingRows(&metrics.BlockingSummary{
		Total: 120,
		Tasks: []metrics.BlockingTask{{URL: "https://example.com/app.js", StartTime: 310, Duration: 140, BlockingTime: 90}},
	})
	assert.Equal(t, []string{"https://example.com/app.js", "310", "140", "90"}, rows[1])
}
