package simulator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/trannam110702/lighthouse-sub001/trace"
)

// DefaultServerResponseTimeMs is used for origins with no observed response time.
const DefaultServerResponseTimeMs = 30

// NetworkAnalysis summarises what the capture reveals about each origin:
// how much slower than the fastest origin it was to reach, and how long
// its server took to respond.
type NetworkAnalysis struct {
	// RTTMs is the smallest round trip observed for any origin.
	RTTMs                      float64
	AdditionalRTTByOrigin      map[string]float64
	ServerResponseTimeByOrigin map[string]float64
}

// AdditionalRTT returns the extra round trip time for origin.
func (a *NetworkAnalysis) AdditionalRTT(origin string) float64 {
	if a == nil {
		return 0
	}
	return a.AdditionalRTTByOrigin[origin]
}

// ServerResponseTime returns the median observed response time for origin.
func (a *NetworkAnalysis) ServerResponseTime(origin string) (float64, bool) {
	if a == nil {
		return 0, false
	}
	v, ok := a.ServerResponseTimeByOrigin[origin]
	return v, ok
}

// Fingerprint encodes the analysis canonically, origins sorted, so equal
// analyses produce equal strings. A nil analysis encodes as "none".
func (a *NetworkAnalysis) Fingerprint() string {
	if a == nil {
		return "none"
	}
	var b strings.Builder
	b.WriteString("rtt=" + strconv.FormatFloat(a.RTTMs, 'g', -1, 64))
	writeOriginValues(&b, "additional_rtt", a.AdditionalRTTByOrigin)
	writeOriginValues(&b, "server_response", a.ServerResponseTimeByOrigin)
	return b.String()
}

func writeOriginValues(b *strings.Builder, name string, values map[string]float64) {
	origins := make([]string, 0, len(values))
	for origin := range values {
		origins = append(origins, origin)
	}
	sort.Strings(origins)
	for _, origin := range origins {
		fmt.Fprintf(b, ";%s[%q]=%s", name, origin, strconv.FormatFloat(values[origin], 'g', -1, 64))
	}
}

// rttSamples derives round trip estimates from a fresh connection's setup
// phases. TCP and TLS handshakes each take about one round trip.
func rttSamples(r *trace.Record) []float64 {
	if r.ConnectionReused || r.FromDiskCache || r.IsNonNetworkProtocol() {
		return nil
	}
	t := r.Timing
	switch {
	case t.ConnectMs <= 0:
		return nil
	case r.Protocol == trace.ProtocolH3:
		return []float64{t.ConnectMs}
	case t.SSLMs > 0 && t.ConnectMs > t.SSLMs:
		return []float64{t.SSLMs, t.ConnectMs - t.SSLMs}
	default:
		return []float64{t.ConnectMs}
	}
}

// AnalyzeNetwork estimates per-origin latency from observed records.
// Origins without usable samples are absent from the maps.
func AnalyzeNetwork(records []*trace.Record) *NetworkAnalysis {
	rttByOrigin := make(map[string][]float64)
	for _, r := range records {
		if r == nil {
			continue
		}
		if samples := rttSamples(r); len(samples) > 0 {
			rttByOrigin[r.Origin()] = append(rttByOrigin[r.Origin()], samples...)
		}
	}

	minRTTByOrigin := make(map[string]float64, len(rttByOrigin))
	globalMin := math.Inf(1)
	for origin, samples := range rttByOrigin {
		m := samples[0]
		for _, s := range samples[1:] {
			m = math.Min(m, s)
		}
		minRTTByOrigin[origin] = m
		globalMin = math.Min(globalMin, m)
	}
	if math.IsInf(globalMin, 1) {
		globalMin = 0
	}

	analysis := &NetworkAnalysis{
		RTTMs:                      globalMin,
		AdditionalRTTByOrigin:      make(map[string]float64, len(minRTTByOrigin)),
		ServerResponseTimeByOrigin: make(map[string]float64),
	}
	for origin, m := range minRTTByOrigin {
		analysis.AdditionalRTTByOrigin[origin] = m - globalMin
	}

	responseByOrigin := make(map[string][]float64)
	for _, r := range records {
		if r == nil || r.FromDiskCache || r.IsNonNetworkProtocol() {
			continue
		}
		origin := r.Origin()
		if r.ServerResponseTime != nil {
			responseByOrigin[origin] = append(responseByOrigin[origin], *r.ServerResponseTime)
			continue
		}
		if r.ResponseReceivedTime <= r.StartTime {
			continue
		}
		ttfb := r.ResponseReceivedTime - r.StartTime
		if !r.ConnectionReused {
			ttfb -= r.Timing.DNSMs + r.Timing.ConnectMs
		}
		rtt, ok := minRTTByOrigin[origin]
		if !ok {
			rtt = globalMin
		}
		responseByOrigin[origin] = append(responseByOrigin[origin], math.Max(ttfb-rtt, 0))
	}
	for origin, samples := range responseByOrigin {
		analysis.ServerResponseTimeByOrigin[origin] = median(samples)
	}

	return analysis
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
