package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
)

const sampleCapture = `{
  "navigation": {
    "main_document_url": "https://example.com/",
    "navigation_start": 0,
    "first_contentful_paint": 900
  },
  "records": [
    {"request_id": "2", "url": "https://example.com/app.js", "resource_type": "Script", "priority": "High",
     "transfer_size": 20000, "start_time": 300, "end_time": 600, "initiator": {"type": "parser", "url": "https://example.com/"},
     "timing": {}},
    {"request_id": "1", "url": "https://example.com/", "resource_type": "Document", "priority": "VeryHigh",
     "transfer_size": 14000, "start_time": 0, "end_time": 250, "initiator": {"type": "other"},
     "timing": {"dns_ms": 20, "connect_ms": 40, "ssl_ms": 30}}
  ],
  "tasks": [
    {"name": "RunTask", "start_time": 700, "duration": 80},
    {"name": "RunTask", "start_time": 610, "duration": 60,
     "events": [{"name": "EvaluateScript", "start_time": 611, "url": "https://example.com/app.js"}]}
  ]
}`

func TestDecodeOrdersRecordsAndTasks(t *testing.T) {
	c, err := Decode(strings.NewReader(sampleCapture))
	require.NoError(t, err)

	require.Len(t, c.Records, 2)
	assert.Equal(t, "1", c.Records[0].RequestID)
	assert.Equal(t, "2", c.Records[1].RequestID)
	assert.Equal(t, 30.0, c.Records[0].Timing.SSLMs)

	require.Len(t, c.Tasks, 2)
	assert.Equal(t, 610.0, c.Tasks[0].StartTime)
	assert.Equal(t, EventEvaluateScript, c.Tasks[0].Events[0].Name)

	require.NotNil(t, c.Navigation.FirstContentfulPaint)
	assert.Equal(t, 900.0, *c.Navigation.FirstContentfulPaint)
	assert.Nil(t, c.Navigation.LargestContentfulPaint)
}

func TestDecodeRejectsInvalidCaptures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown field", `{"navigation": {"main_document_url": "https://a/"}, "bogus": 1}`, "unknown field"},
		{"missing main document", `{"navigation": {}, "records": []}`, "main_document_url"},
		{"duplicate request", `{"navigation": {"main_document_url": "https://a/"}, "records": [
			{"request_id": "1", "url": "https://a/", "start_time": 0, "end_time": 1, "initiator": {}, "timing": {}},
			{"request_id": "1", "url": "https://a/x", "start_time": 0, "end_time": 1, "initiator": {}, "timing": {}}]}`, "duplicate request_id"},
		{"negative task", `{"navigation": {"main_document_url": "https://a/"}, "tasks": [{"name": "RunTask", "start_time": 1, "duration": -1}]}`, "negative duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeDuplicateCarriesHint(t *testing.T) {
	input := `{"navigation": {"main_document_url": "https://a/"}, "records": [
		{"request_id": "1", "url": "https://a/", "start_time": 0, "end_time": 1, "initiator": {}, "timing": {}},
		{"request_id": "1", "url": "https://a/", "start_time": 0, "end_time": 1, "initiator": {}, "timing": {}}]}`
	_, err := Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, errors.GetAllHints(err), "records must be deduplicated before simulation")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCapture), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", c.Navigation.MainDocumentURL)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open capture")
}
