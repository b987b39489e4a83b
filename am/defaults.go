package am

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// Default values
const (
	DefaultPreset       = simulator.PresetMobileSlow4G
	DefaultDatabasePath = "lantern.db"
	DefaultWorkers      = 4
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Throttling defaults
	v.SetDefault("throttling.preset", DefaultPreset)

	// Simulation defaults
	v.SetDefault("simulation.maximum_concurrent_requests", 0) // unlimited
	v.SetDefault("simulation.layout_task_multiplier", simulator.DefaultLayoutTaskMultiplier)
	v.SetDefault("simulation.connections_per_origin", simulator.DefaultConnectionsPerOrigin)
	v.SetDefault("simulation.use_observed_origin_timing", true)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.database_path", DefaultDatabasePath)

	// Engine defaults
	v.SetDefault("engine.workers", DefaultWorkers)
}

// BindEnvVars binds settings that are commonly overridden per invocation
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("throttling.preset", EnvPrefix+"_THROTTLING_PRESET", EnvPrefix+"_PRESET")
	v.BindEnv("cache.database_path", EnvPrefix+"_CACHE_DATABASE_PATH", EnvPrefix+"_DATABASE_PATH")
}

// Profile resolves a profile name against the configured profiles first and
// the built-in presets second.
func (c *Config) Profile(name string) (simulator.Profile, error) {
	if p, ok := c.Throttling.Profiles[strings.ToLower(name)]; ok {
		return p, nil
	}
	if p, ok := c.Throttling.Profiles[name]; ok {
		return p, nil
	}
	for _, preset := range simulator.PresetNames() {
		if strings.EqualFold(preset, name) {
			return simulator.Preset(preset)
		}
	}
	return simulator.Profile{}, errors.WithHintf(
		errors.NewNotFoundError("throttling profile %q", name),
		"available profiles: %s", strings.Join(c.ProfileNames(), ", "))
}

// ActiveProfile resolves Throttling.Preset.
func (c *Config) ActiveProfile() (simulator.Profile, error) {
	return c.Profile(c.GetPreset())
}

// ProfileNames lists the built-in presets and the configured profiles.
func (c *Config) ProfileNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range simulator.PresetNames() {
		seen[strings.ToLower(n)] = true
		names = append(names, n)
	}
	for n := range c.Throttling.Profiles {
		if !seen[strings.ToLower(n)] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// GetPreset returns the configured preset name (default: mobileSlow4G)
func (c *Config) GetPreset() string {
	if c.Throttling.Preset == "" {
		return DefaultPreset
	}
	return c.Throttling.Preset
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Cache.DatabasePath == "" {
		return DefaultDatabasePath
	}
	return c.Cache.DatabasePath
}

// GetWorkers returns the engine worker count (default: 4)
func (c *Config) GetWorkers() int {
	if c.Engine.Workers == 0 {
		return DefaultWorkers
	}
	return c.Engine.Workers
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Throttling: {Preset: %s}, Cache: {Enabled: %t, DatabasePath: %s}, Engine: {Workers: %d}}",
		c.GetPreset(), c.Cache.Enabled, c.GetDatabasePath(), c.GetWorkers())
}
