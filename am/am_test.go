package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	// Isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, simulator.PresetMobileSlow4G, cfg.Throttling.Preset)
	assert.Equal(t, 0, cfg.Simulation.MaximumConcurrentRequests)
	assert.Equal(t, 0.5, cfg.Simulation.LayoutTaskMultiplier)
	assert.Equal(t, 6, cfg.Simulation.ConnectionsPerOrigin)
	assert.True(t, cfg.Simulation.UseObservedOriginTiming)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "lantern.db", cfg.Cache.DatabasePath)
	assert.Equal(t, 4, cfg.Engine.Workers)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"throttling.preset", "mobileSlow4G"},
		{"simulation.connections_per_origin", 6},
		{"simulation.use_observed_origin_timing", true},
		{"cache.database_path", "lantern.db"},
		{"engine.workers", 4},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.Get(tt.key))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero concurrent requests is unlimited", func(c *Config) { c.Simulation.MaximumConcurrentRequests = 0 }, false},
		{"negative concurrent requests", func(c *Config) { c.Simulation.MaximumConcurrentRequests = -1 }, true},
		{"zero layout multiplier", func(c *Config) { c.Simulation.LayoutTaskMultiplier = 0 }, true},
		{"zero connections per origin", func(c *Config) { c.Simulation.ConnectionsPerOrigin = 0 }, true},
		{"zero workers uses default", func(c *Config) { c.Engine.Workers = 0 }, false},
		{"negative workers", func(c *Config) { c.Engine.Workers = -2 }, true},
		{"unknown preset", func(c *Config) { c.Throttling.Preset = "dialup" }, true},
		{"cache without path", func(c *Config) { c.Cache.Enabled = true; c.Cache.DatabasePath = "" }, true},
		{"invalid custom profile", func(c *Config) {
			c.Throttling.Profiles = map[string]simulator.Profile{"broken": {RTTMs: 10, ThroughputKbps: 0, CPUSlowdownMultiplier: 1}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ProfileErrorKeepsCategory(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Throttling.Profiles = map[string]simulator.Profile{"broken": {RTTMs: -5, ThroughputKbps: 1, CPUSlowdownMultiplier: 1}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, grapherr.IsThrottling(err))
	assert.Contains(t, err.Error(), "throttling.profiles.broken")
}

func TestProfile(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Throttling.Profiles = map[string]simulator.Profile{
		"slowwifi": {RTTMs: 80, ThroughputKbps: 5000, CPUSlowdownMultiplier: 2},
	}

	p, err := cfg.Profile("slowWifi")
	require.NoError(t, err)
	assert.Equal(t, 80.0, p.RTTMs)

	p, err = cfg.Profile("MOBILESLOW4G")
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.RTTMs)

	p, err = cfg.ActiveProfile()
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.RTTMs)

	_, err = cfg.Profile("dialup")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, errors.FlattenHints(err), "slowwifi")

	assert.Equal(t, []string{"desktopDense4G", "mobileRegular3G", "mobileSlow4G", "slowwifi"}, cfg.ProfileNames())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lantern.toml")
	content := `
[throttling]
preset = "slowWifi"

[throttling.profiles.slowWifi]
rtt_ms = 80
throughput_kbps = 5000
cpu_slowdown_multiplier = 2

[engine]
workers = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 6, cfg.Simulation.ConnectionsPerOrigin, "defaults still apply")

	p, err := cfg.ActiveProfile()
	require.NoError(t, err)
	assert.Equal(t, simulator.Profile{RTTMs: 80, ThroughputKbps: 5000, CPUSlowdownMultiplier: 2}, p)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("found upward", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "project", "nested", "deeper")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "project", ConfigFileName), nil, DefaultFilePermissions))

		t.Chdir(subDir)
		result := findProjectConfig()
		assert.True(t, filepath.IsAbs(result))
		assert.Equal(t, filepath.Join("project", ConfigFileName), filepath.Join(filepath.Base(filepath.Dir(result)), filepath.Base(result)))
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "empty", "subdir")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))

		t.Chdir(subDir)
		assert.Equal(t, "", findProjectConfig())
	})
}

func TestLoad_Precedence(t *testing.T) {
	Reset()
	defer Reset()

	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)

	require.NoError(t, os.MkdirAll(filepath.Join(home, UserConfigDir), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(home, UserConfigDir, ConfigFileName), []byte(`
[cache]
enabled = true
database_path = "user.db"

[simulation]
connections_per_origin = 4
`), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(filepath.Join(project, ConfigFileName), []byte(`
[cache]
database_path = "project.db"
`), DefaultFilePermissions))
	t.Setenv("LANTERN_ENGINE_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "project.db", cfg.Cache.DatabasePath, "project config wins over user config")
	assert.Equal(t, 4, cfg.Simulation.ConnectionsPerOrigin)
	assert.Equal(t, 8, cfg.Engine.Workers, "environment wins over files")

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again)

	settings, err := Introspect()
	require.NoError(t, err)
	byKey := make(map[string]SettingInfo)
	for _, s := range settings {
		byKey[s.Key] = s
	}
	assert.Equal(t, SourceProject, byKey["cache.database_path"].Source)
	assert.Equal(t, SourceUser, byKey["cache.enabled"].Source)
	assert.Equal(t, SourceEnvironment, byKey["engine.workers"].Source)
	assert.Equal(t, "LANTERN_ENGINE_WORKERS", byKey["engine.workers"].SourcePath)
	assert.Equal(t, SourceDefault, byKey["throttling.preset"].Source)

	summary := SourceSummary(settings)
	assert.Equal(t, 1, summary[SourceProject])
	assert.Equal(t, 2, summary[SourceUser])
}
