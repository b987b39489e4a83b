package am

import (
	"github.com/BurntSushi/toml"

	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/simulator"
)

// LoadProfileFile decodes a standalone throttling profile:
//
//	rtt_ms = 150
//	throughput_kbps = 1638.4
//	cpu_slowdown_multiplier = 4
func LoadProfileFile(path string) (simulator.Profile, error) {
	var p simulator.Profile
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return p, errors.Wrapf(err, "failed to read profile %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return p, errors.WithHint(
			errors.NewInvalidRequestError("profile %s has unknown key %s", path, undecoded[0].String()),
			"known keys: rtt_ms, throughput_kbps, upload_throughput_kbps, cpu_slowdown_multiplier")
	}
	if err := p.Validate(); err != nil {
		return p, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}
