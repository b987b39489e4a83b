package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/lantern/lantern.toml
	SourceUser        ConfigSource = "user"        // ~/.lantern/lantern.toml
	SourceProject     ConfigSource = "project"     // lantern.toml found upward from the working directory
	SourceEnvironment ConfigSource = "environment" // LANTERN_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Introspect lists every effective setting with the source that set it.
func Introspect() ([]SettingInfo, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}
	v := GetViper()

	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, s := range ConfigSources {
		sources[k] = s
	}
	mu.Unlock()

	return settingsWithSources(v.AllKeys(), v.Get, sources), nil
}

func settingsWithSources(keys []string, get func(string) interface{}, sources map[string]SourceInfo) []SettingInfo {
	sort.Strings(keys)
	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sources[key]; ok {
			info = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if envValue := os.Getenv(envKey); envValue != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings
}

// SourceSummary counts settings by source.
func SourceSummary(settings []SettingInfo) map[ConfigSource]int {
	summary := make(map[ConfigSource]int)
	for _, s := range settings {
		summary[s.Source]++
	}
	return summary
}
