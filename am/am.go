// Package am loads the lantern configuration.
package am

import (
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// Config represents the lantern configuration
type Config struct {
	Throttling ThrottlingConfig `mapstructure:"throttling" json:"throttling" toml:"throttling" yaml:"throttling"`
	Simulation SimulationConfig `mapstructure:"simulation" json:"simulation" toml:"simulation" yaml:"simulation"`
	Cache      CacheConfig      `mapstructure:"cache" json:"cache" toml:"cache" yaml:"cache"`
	Engine     EngineConfig     `mapstructure:"engine" json:"engine" toml:"engine" yaml:"engine"`
}

// ThrottlingConfig selects the network and CPU conditions to simulate
type ThrottlingConfig struct {
	Preset string `mapstructure:"preset" json:"preset" toml:"preset" yaml:"preset"` // built-in or configured profile name (default: mobileSlow4G)
	// Profiles adds named profiles next to the built-in presets. Names are
	// case-insensitive because viper lower-cases map keys.
	Profiles map[string]simulator.Profile `mapstructure:"profiles" json:"profiles,omitempty" toml:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// SimulationConfig tunes the simulator
type SimulationConfig struct {
	MaximumConcurrentRequests int     `mapstructure:"maximum_concurrent_requests" json:"maximum_concurrent_requests" toml:"maximum_concurrent_requests" yaml:"maximum_concurrent_requests"` // 0 = unlimited
	LayoutTaskMultiplier      float64 `mapstructure:"layout_task_multiplier" json:"layout_task_multiplier" toml:"layout_task_multiplier" yaml:"layout_task_multiplier"`                     // relative to the CPU multiplier (default: 0.5)
	ConnectionsPerOrigin      int     `mapstructure:"connections_per_origin" json:"connections_per_origin" toml:"connections_per_origin" yaml:"connections_per_origin"`                     // HTTP/1.1 only (default: 6)
	UseObservedOriginTiming   bool    `mapstructure:"use_observed_origin_timing" json:"use_observed_origin_timing" toml:"use_observed_origin_timing" yaml:"use_observed_origin_timing"`     // default: true
}

// CacheConfig configures persisted metric summaries
type CacheConfig struct {
	Enabled      bool   `mapstructure:"enabled" json:"enabled" toml:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" json:"database_path" toml:"database_path" yaml:"database_path"` // default: lantern.db
}

// EngineConfig configures metric fan-out
type EngineConfig struct {
	Workers int `mapstructure:"workers" json:"workers" toml:"workers" yaml:"workers"` // concurrent metric computations (default: 4)
}

// Config file names and locations
const (
	ConfigFileName   = "lantern.toml"
	UserConfigDir    = ".lantern"
	SystemConfigPath = "/etc/lantern/lantern.toml"
	EnvPrefix        = "LANTERN"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
