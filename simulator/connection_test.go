package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tenMbps = 10 * 1024 * 1024

func TestSimulateDownloadUntil_ColdConnection(t *testing.T) {
	tests := []struct {
		name      string
		ssl       bool
		dns       float64
		server    float64
		wantTime  float64
		wantTTFB  float64
		wantSSLMs float64
	}{
		{name: "plain", wantTime: 200, wantTTFB: 200},
		{name: "tls adds a round trip", ssl: true, wantTime: 300, wantTTFB: 300, wantSSLMs: 100},
		{name: "dns and server latency", dns: 200, server: 30, wantTime: 430, wantTTFB: 430},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConnection(100, tenMbps, tt.ssl, false)
			res := c.SimulateDownloadUntil(1000, DownloadOptions{
				MaximumTimeToElapse: math.Inf(1),
				DNSResolutionTime:   tt.dns,
				ServerLatency:       tt.server,
			})

			assert.Equal(t, tt.wantTime, res.TimeElapsed)
			assert.Equal(t, tt.wantTTFB, res.Timing.TTFBMs)
			assert.Equal(t, tt.wantSSLMs, res.Timing.SSLMs)
			assert.Equal(t, tt.dns, res.Timing.DNSMs)
			assert.Equal(t, float64(1000), res.BytesDownloaded)
		})
	}
}

func TestSimulateDownloadUntil_WarmConnection(t *testing.T) {
	h1 := NewConnection(100, tenMbps, true, false)
	h1.SetWarmed(true)
	res := h1.SimulateDownloadUntil(1000, DownloadOptions{MaximumTimeToElapse: math.Inf(1)})
	assert.Equal(t, float64(100), res.TimeElapsed, "warm http/1.1 pays request and response legs only")
	assert.Equal(t, float64(0), res.Timing.DNSMs)

	h2 := NewConnection(100, tenMbps, true, true)
	h2.SetWarmed(true)
	res = h2.SimulateDownloadUntil(1000, DownloadOptions{MaximumTimeToElapse: math.Inf(1)})
	assert.Equal(t, float64(0), res.Timing.TTFBMs)
	assert.InDelta(t, 100*1000/29200.0, res.TimeElapsed, 1e-9, "a short last window takes its share of the round trip")
}

func TestSimulateDownloadUntil_SlowStart(t *testing.T) {
	c := NewConnection(100, tenMbps, false, false)
	small := c.SimulateDownloadUntil(10*1460, DownloadOptions{MaximumTimeToElapse: math.Inf(1)})
	large := c.SimulateDownloadUntil(100*1460, DownloadOptions{MaximumTimeToElapse: math.Inf(1)})

	assert.Equal(t, float64(200), small.TimeElapsed, "first window arrives with the response")
	assert.Greater(t, large.TimeElapsed, small.TimeElapsed)
	assert.Greater(t, large.CongestionWindow, float64(initialCongestionWindow))
	assert.Equal(t, float64(initialCongestionWindow), c.CongestionWindow(), "simulation does not mutate the connection")
}

func TestSimulateDownloadUntil_MaximumTime(t *testing.T) {
	c := NewConnection(100, tenMbps, false, false)
	res := c.SimulateDownloadUntil(1000*1460, DownloadOptions{MaximumTimeToElapse: 300})

	assert.Less(t, res.BytesDownloaded, float64(1000*1460))
	assert.Greater(t, res.BytesDownloaded, float64(0))
}

func TestSimulateDownloadUntil_ZeroRTT(t *testing.T) {
	// 1000 Kbps is 128000 bytes per second
	c := NewConnection(0, 1000*1024, true, false)
	res := c.SimulateDownloadUntil(64000, DownloadOptions{MaximumTimeToElapse: math.Inf(1), ServerLatency: 10})
	assert.InDelta(t, 510, res.TimeElapsed, 1e-9)

	partial := c.SimulateDownloadUntil(64000, DownloadOptions{MaximumTimeToElapse: 260, ServerLatency: 10})
	assert.InDelta(t, 260, partial.TimeElapsed, 1e-9)
	assert.InDelta(t, 32000, partial.BytesDownloaded, 1e-6)

	instant := NewConnection(0, math.Inf(1), false, false)
	res = instant.SimulateDownloadUntil(1e9, DownloadOptions{MaximumTimeToElapse: math.Inf(1), ServerLatency: 100})
	assert.Equal(t, float64(100), res.TimeElapsed)
}

func TestSimulateDownloadUntil_SlowerLinksAreNeverFaster(t *testing.T) {
	rtts := []float64{0, 0.5, 1, 5, 20, 40, 100, 150, 300}
	throughputs := []float64{64 * 1024, 1000 * 1024, 1.6 * 1024 * 1024, tenMbps, 100 * 1024 * 1024}
	download := func(size, rtt, throughput float64) float64 {
		c := NewConnection(rtt, throughput, true, false)
		return c.SimulateDownloadUntil(size, DownloadOptions{
			MaximumTimeToElapse: math.Inf(1),
			DNSResolutionTime:   2 * rtt,
			ServerLatency:       30,
		}).TimeElapsed
	}

	for _, size := range []float64{1000, 64000, 500000} {
		for _, throughput := range throughputs {
			prev := 0.0
			for _, rtt := range rtts {
				got := download(size, rtt, throughput)
				assert.GreaterOrEqual(t, got, prev, "size=%v throughput=%v rtt=%v", size, throughput, rtt)
				prev = got
			}
		}
		for _, rtt := range rtts {
			prev := math.Inf(1)
			for _, throughput := range throughputs {
				got := download(size, rtt, throughput)
				assert.LessOrEqual(t, got, prev, "size=%v throughput=%v rtt=%v", size, throughput, rtt)
				prev = got
			}
		}
	}

	// 64000 bytes at 1000 Kbps is 500 ms of transfer however short the round trip
	assert.InDelta(t, 530, download(64000, 0, 1000*1024), 1e-9)
	assert.InDelta(t, 532, download(64000, 0.5, 1000*1024), 1e-9)
}

func TestH2OverflowBytes(t *testing.T) {
	h1 := NewConnection(100, tenMbps, false, false)
	h1.SetH2OverflowBytesDownloaded(500)
	assert.Equal(t, float64(0), h1.h2OverflowBytes)

	h2 := NewConnection(100, tenMbps, false, true)
	res := h2.SimulateDownloadUntil(1000, DownloadOptions{MaximumTimeToElapse: math.Inf(1)})
	assert.Equal(t, float64(10*1460-1000), res.ExtraBytesDownloaded)
}

func TestDNSCache(t *testing.T) {
	d := newDNSCache(100)

	assert.Equal(t, float64(200), d.timeUntilResolution("example.com", 0, true))
	assert.Equal(t, float64(150), d.timeUntilResolution("example.com", 50, true), "in-flight lookup is shared")
	assert.Equal(t, float64(0), d.timeUntilResolution("example.com", 500, true))
	assert.Equal(t, float64(200), d.timeUntilResolution("cdn.example.com", 500, false))
	assert.Equal(t, float64(200), d.timeUntilResolution("cdn.example.com", 600, false), "lookups without update are not cached")
}
