package simulator

import (
	"github.com/trannam110702/lighthouse-sub001/graph"
)

// DefaultConnectionsPerOrigin is the browser's HTTP/1.1 per-origin limit.
const DefaultConnectionsPerOrigin = 6

type poolOptions struct {
	rtt                  float64
	throughput           float64
	connectionsPerOrigin int
	analysis             *NetworkAnalysis
}

// connectionPool hands out connections for one simulation. HTTP/1.1
// origins own a fixed set of exclusive connections. A multiplexed origin
// owns one session; every request gets its own stream cloned from it, and
// finished streams fold their warmth back into the session.
type connectionPool struct {
	byOrigin    map[string][]*Connection
	multiplexed map[string]bool
	byNode      map[*graph.NetworkNode]*Connection
	inUse       map[*Connection]struct{}
	sessionOf   map[*Connection]*Connection
}

func newConnectionPool(nodes []*graph.NetworkNode, opts poolOptions) *connectionPool {
	p := &connectionPool{
		byOrigin:    make(map[string][]*Connection),
		multiplexed: make(map[string]bool),
		byNode:      make(map[*graph.NetworkNode]*Connection),
		inUse:       make(map[*Connection]struct{}),
		sessionOf:   make(map[*Connection]*Connection),
	}

	perOrigin := opts.connectionsPerOrigin
	if perOrigin <= 0 {
		perOrigin = DefaultConnectionsPerOrigin
	}

	// an origin seen over h2 anywhere in the capture is multiplexed
	for _, n := range nodes {
		if key := n.ConnectionKey(); !n.IsConnectionless() && key.Multiplexed {
			p.multiplexed[key.Origin] = true
		}
	}

	for _, n := range nodes {
		if n.IsConnectionless() {
			continue
		}
		key := n.ConnectionKey()
		if _, ok := p.byOrigin[key.Origin]; ok {
			continue
		}
		multiplexed := p.multiplexed[key.Origin]

		template := NewConnection(
			opts.rtt+opts.analysis.AdditionalRTT(key.Origin),
			opts.throughput,
			n.Record().IsSecure(),
			multiplexed,
		)
		count := perOrigin
		if multiplexed {
			count = 1
		}
		conns := make([]*Connection, count)
		for i := range conns {
			conns[i] = template.Clone()
		}
		p.byOrigin[key.Origin] = conns
	}
	return p
}

// acquire returns a connection for n, or nil when every connection of the
// origin is busy.
func (p *connectionPool) acquire(n *graph.NetworkNode) *Connection {
	if c, ok := p.byNode[n]; ok {
		return c
	}
	origin := n.ConnectionKey().Origin
	conns := p.byOrigin[origin]
	if len(conns) == 0 {
		return nil
	}

	if p.multiplexed[origin] {
		session := conns[0]
		stream := session.Clone()
		// overflow bytes belong to whichever stream picks them up first
		session.h2OverflowBytes = 0
		p.sessionOf[stream] = session
		p.byNode[n] = stream
		return stream
	}

	var best *Connection
	for _, c := range conns {
		if _, busy := p.inUse[c]; busy {
			continue
		}
		if best == nil || c.CongestionWindow() > best.CongestionWindow() {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	p.inUse[best] = struct{}{}
	p.byNode[n] = best
	return best
}

// connectionFor returns the connection n currently holds.
func (p *connectionPool) connectionFor(n *graph.NetworkNode) *Connection {
	return p.byNode[n]
}

// release returns n's connection to the pool.
func (p *connectionPool) release(n *graph.NetworkNode) {
	c, ok := p.byNode[n]
	if !ok {
		return
	}
	delete(p.byNode, n)

	if session, ok := p.sessionOf[c]; ok {
		delete(p.sessionOf, c)
		if c.IsWarm() {
			session.SetWarmed(true)
		}
		if c.CongestionWindow() > session.CongestionWindow() {
			session.SetCongestionWindow(c.CongestionWindow())
		}
		if c.h2OverflowBytes > 0 {
			session.SetH2OverflowBytesDownloaded(c.h2OverflowBytes)
		}
		return
	}
	delete(p.inUse, c)
}
