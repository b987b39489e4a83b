package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
)

func TestProfileValidate(t *testing.T) {
	valid := Profile{RTTMs: 150, ThroughputKbps: 1638.4, CPUSlowdownMultiplier: 4}

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantSub string
	}{
		{name: "valid"},
		{name: "zero rtt", mutate: func(p *Profile) { p.RTTMs = 0 }},
		{name: "infinite throughput", mutate: func(p *Profile) { p.ThroughputKbps = math.Inf(1) }},
		{name: "negative rtt", mutate: func(p *Profile) { p.RTTMs = -1 }, wantSub: grapherr.SubcategoryRTT},
		{name: "nan rtt", mutate: func(p *Profile) { p.RTTMs = math.NaN() }, wantSub: grapherr.SubcategoryRTT},
		{name: "zero throughput", mutate: func(p *Profile) { p.ThroughputKbps = 0 }, wantSub: grapherr.SubcategoryThroughput},
		{name: "negative upload", mutate: func(p *Profile) { p.UploadThroughputKbps = -5 }, wantSub: grapherr.SubcategoryThroughput},
		{name: "zero cpu multiplier", mutate: func(p *Profile) { p.CPUSlowdownMultiplier = 0 }, wantSub: grapherr.SubcategoryCPUMultiplier},
		{name: "infinite cpu multiplier", mutate: func(p *Profile) { p.CPUSlowdownMultiplier = math.Inf(1) }, wantSub: grapherr.SubcategoryCPUMultiplier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			err := p.Validate()
			if tt.wantSub == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, grapherr.IsThrottling(err))
			ge, ok := grapherr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantSub, ge.Subcategory)
		})
	}
}

func TestPreset(t *testing.T) {
	p, err := Preset(PresetMobileSlow4G)
	require.NoError(t, err)
	assert.Equal(t, float64(150), p.RTTMs)
	assert.Equal(t, 1.6*1024, p.ThroughputKbps)
	assert.Equal(t, float64(4), p.CPUSlowdownMultiplier)

	for name, preset := range Presets() {
		assert.NoError(t, preset.Validate(), name)
	}

	_, err = Preset("dialup")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, errors.FlattenHints(err), PresetDesktopDense4G)

	assert.Equal(t, []string{PresetDesktopDense4G, PresetMobileRegular3G, PresetMobileSlow4G}, PresetNames())
}

func TestNewRejectsInvalidProfile(t *testing.T) {
	_, err := New(Options{Profile: Profile{RTTMs: -1, ThroughputKbps: 1, CPUSlowdownMultiplier: 1}})
	assert.True(t, grapherr.IsThrottling(err))
}
