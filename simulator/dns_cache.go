package simulator

import (
	"math"
)

// A cold lookup costs this many round trips.
const dnsResolutionRTTMultiplier = 2

// dnsCache remembers when each host finished resolving within one simulation.
type dnsCache struct {
	rtt        float64
	resolvedAt map[string]float64
}

func newDNSCache(rttMs float64) *dnsCache {
	return &dnsCache{rtt: rttMs, resolvedAt: make(map[string]float64)}
}

// timeUntilResolution returns how long a lookup of host requested at
// requestedAt takes. A host already being resolved is ready when the
// earlier lookup finishes. With update set the lookup is recorded.
func (d *dnsCache) timeUntilResolution(host string, requestedAt float64, update bool) float64 {
	timeUntilResolved := d.rtt * dnsResolutionRTTMultiplier
	if resolvedAt, ok := d.resolvedAt[host]; ok {
		timeUntilResolved = math.Min(math.Max(resolvedAt-requestedAt, 0), timeUntilResolved)
	}

	if update {
		resolvedAt := requestedAt + timeUntilResolved
		if prev, ok := d.resolvedAt[host]; !ok || resolvedAt < prev {
			d.resolvedAt[host] = resolvedAt
		}
	}
	return timeUntilResolved
}
