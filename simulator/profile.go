// Package simulator executes a dependency graph under a throttling profile
// and predicts when every node would have finished.
//
// A simulation runs on a logical clock: it never reads wall time and never
// draws random numbers, so the same graph and profile always produce the
// same result.
package simulator

import (
	"math"
	"sort"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
)

// Profile describes a simulated network and device. Throughput is in
// kilobits per second; the simulator treats a kilobit as 1024 bits.
type Profile struct {
	RTTMs                 float64 `json:"rtt_ms" mapstructure:"rtt_ms" toml:"rtt_ms" yaml:"rtt_ms"`
	ThroughputKbps        float64 `json:"throughput_kbps" mapstructure:"throughput_kbps" toml:"throughput_kbps" yaml:"throughput_kbps"`
	UploadThroughputKbps  float64 `json:"upload_throughput_kbps,omitempty" mapstructure:"upload_throughput_kbps" toml:"upload_throughput_kbps,omitempty" yaml:"upload_throughput_kbps,omitempty"`
	CPUSlowdownMultiplier float64 `json:"cpu_slowdown_multiplier" mapstructure:"cpu_slowdown_multiplier" toml:"cpu_slowdown_multiplier" yaml:"cpu_slowdown_multiplier"`
}

// Built-in profile names.
const (
	PresetMobileSlow4G    = "mobileSlow4G"
	PresetMobileRegular3G = "mobileRegular3G"
	PresetDesktopDense4G  = "desktopDense4G"
)

var presets = map[string]Profile{
	PresetMobileSlow4G: {
		RTTMs:                 150,
		ThroughputKbps:        1.6 * 1024,
		UploadThroughputKbps:  750,
		CPUSlowdownMultiplier: 4,
	},
	PresetMobileRegular3G: {
		RTTMs:                 300,
		ThroughputKbps:        700,
		UploadThroughputKbps:  700,
		CPUSlowdownMultiplier: 4,
	},
	PresetDesktopDense4G: {
		RTTMs:                 40,
		ThroughputKbps:        10 * 1024,
		UploadThroughputKbps:  10 * 1024,
		CPUSlowdownMultiplier: 1,
	},
}

// Preset returns a built-in profile.
func Preset(name string) (Profile, error) {
	p, ok := presets[name]
	if !ok {
		return Profile{}, errors.WithHintf(
			errors.NewNotFoundError("throttling preset %q", name),
			"available presets: %v", PresetNames(),
		)
	}
	return p, nil
}

// Presets returns a copy of the built-in profiles keyed by name.
func Presets() map[string]Profile {
	out := make(map[string]Profile, len(presets))
	for k, v := range presets {
		out[k] = v
	}
	return out
}

// PresetNames lists the built-in profile names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate rejects profiles the simulator cannot run. A zero RTT is allowed
// and means requests pay no latency; an infinite throughput is allowed.
func (p Profile) Validate() error {
	if math.IsNaN(p.RTTMs) || math.IsInf(p.RTTMs, 0) || p.RTTMs < 0 {
		return grapherr.Throttling(grapherr.SubcategoryRTT, "rtt must be a finite value >= 0, got %v", p.RTTMs).
			WithContext("rtt_ms", p.RTTMs)
	}
	if math.IsNaN(p.ThroughputKbps) || p.ThroughputKbps <= 0 {
		return grapherr.Throttling(grapherr.SubcategoryThroughput, "throughput must be > 0, got %v", p.ThroughputKbps).
			WithContext("throughput_kbps", p.ThroughputKbps)
	}
	if math.IsNaN(p.UploadThroughputKbps) || p.UploadThroughputKbps < 0 {
		return grapherr.Throttling(grapherr.SubcategoryThroughput, "upload throughput must be >= 0, got %v", p.UploadThroughputKbps).
			WithContext("upload_throughput_kbps", p.UploadThroughputKbps)
	}
	if math.IsNaN(p.CPUSlowdownMultiplier) || math.IsInf(p.CPUSlowdownMultiplier, 0) || p.CPUSlowdownMultiplier <= 0 {
		return grapherr.Throttling(grapherr.SubcategoryCPUMultiplier, "cpu slowdown multiplier must be a finite value > 0, got %v", p.CPUSlowdownMultiplier).
			WithContext("cpu_slowdown_multiplier", p.CPUSlowdownMultiplier)
	}
	return nil
}

// throughputBitsPerSecond converts the download throughput for the connection model.
func (p Profile) throughputBitsPerSecond() float64 {
	return p.ThroughputKbps * 1024
}
