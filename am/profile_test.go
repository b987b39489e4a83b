package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
	return path
}

func TestLoadProfileFile(t *testing.T) {
	path := writeProfile(t, `
rtt_ms = 150
throughput_kbps = 1638.4
upload_throughput_kbps = 750
cpu_slowdown_multiplier = 4
`)
	p, err := LoadProfileFile(path)
	require.NoError(t, err)

	preset, err := simulator.Preset(simulator.PresetMobileSlow4G)
	require.NoError(t, err)
	assert.Equal(t, preset, p)
}

func TestLoadProfileFile_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		path := writeProfile(t, "rtt_ms = 150\nthroughput_kbps = 100\ncpu_slowdown_multiplier = 1\nlatency = 3\n")
		_, err := LoadProfileFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRequestError(err))
		assert.Contains(t, err.Error(), "latency")
	})

	t.Run("invalid profile", func(t *testing.T) {
		path := writeProfile(t, "rtt_ms = 150\nthroughput_kbps = 0\ncpu_slowdown_multiplier = 1\n")
		_, err := LoadProfileFile(path)
		assert.True(t, grapherr.IsThrottling(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfileFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}
