package simulator

import (
	"math"
)

const (
	initialCongestionWindow = 10
	tcpSegmentSize          = 1460
)

// ConnectionTiming breaks down the setup cost a request paid. Warm
// connections only report TTFBMs.
type ConnectionTiming struct {
	DNSMs     float64 `json:"dns_ms,omitempty"`
	ConnectMs float64 `json:"connect_ms,omitempty"`
	SSLMs     float64 `json:"ssl_ms,omitempty"`
	TTFBMs    float64 `json:"ttfb_ms"`
}

// Connection models one TCP connection with slow start. RTT is in
// milliseconds, throughput in bits per second.
type Connection struct {
	rtt              float64
	throughput       float64
	ssl              bool
	h2               bool
	warmed           bool
	congestionWindow float64
	h2OverflowBytes  float64
}

// NewConnection creates a cold connection.
func NewConnection(rttMs, throughputBps float64, ssl, h2 bool) *Connection {
	return &Connection{
		rtt:              rttMs,
		throughput:       throughputBps,
		ssl:              ssl,
		h2:               h2,
		congestionWindow: initialCongestionWindow,
	}
}

func (c *Connection) IsWarm() bool                  { return c.warmed }
func (c *Connection) IsH2() bool                    { return c.h2 }
func (c *Connection) CongestionWindow() float64     { return c.congestionWindow }
func (c *Connection) SetWarmed(warm bool)           { c.warmed = warm }
func (c *Connection) SetThroughput(bps float64)     { c.throughput = bps }
func (c *Connection) SetCongestionWindow(w float64) { c.congestionWindow = w }

// SetH2OverflowBytesDownloaded records bytes of the next response already
// received with the last window. Only multiplexed connections carry them.
func (c *Connection) SetH2OverflowBytesDownloaded(bytes float64) {
	if !c.h2 {
		return
	}
	c.h2OverflowBytes = bytes
}

// Clone copies the connection state.
func (c *Connection) Clone() *Connection {
	cp := *c
	return &cp
}

// maximumCongestionWindow is the window in segments that saturates the
// connection's throughput over one round trip. It stays fractional so a
// round trip never carries more than the throughput allows.
func (c *Connection) maximumCongestionWindow() float64 {
	bytesPerSecond := c.throughput / 8
	secondsPerRoundTrip := c.rtt / 1000
	return bytesPerSecond * secondsPerRoundTrip / tcpSegmentSize
}

// DownloadOptions bound a download simulation.
type DownloadOptions struct {
	// TimeAlreadyElapsed is how long the request has been in flight.
	TimeAlreadyElapsed float64
	// MaximumTimeToElapse stops the download early; use math.Inf(1) to run to completion.
	MaximumTimeToElapse float64
	DNSResolutionTime   float64
	ServerLatency       float64
}

// DownloadResult reports how far a download got.
type DownloadResult struct {
	RoundTrips           int
	TimeElapsed          float64
	BytesDownloaded      float64
	ExtraBytesDownloaded float64
	CongestionWindow     float64
	Timing               ConnectionTiming
}

// SimulateDownloadUntil simulates downloading bytes over the connection,
// stopping once the download completes or MaximumTimeToElapse is exceeded.
// It does not change the connection; callers apply the returned congestion
// window and overflow bytes themselves.
func (c *Connection) SimulateDownloadUntil(bytes float64, o DownloadOptions) DownloadResult {
	if c.warmed && c.h2 {
		bytes -= c.h2OverflowBytes
	}

	twoWayLatency := c.rtt
	oneWayLatency := twoWayLatency / 2

	handshakeAndRequest := oneWayLatency
	if !c.warmed {
		handshakeAndRequest = o.DNSResolutionTime +
			oneWayLatency + // SYN
			oneWayLatency + // SYN ACK
			oneWayLatency // ACK + request
		if c.ssl {
			// TLS with false start
			handshakeAndRequest += twoWayLatency
		}
	}

	timeToFirstByte := handshakeAndRequest + o.ServerLatency + oneWayLatency
	if c.warmed && c.h2 {
		timeToFirstByte = 0
	}
	timeElapsedForTTFB := math.Max(timeToFirstByte-o.TimeAlreadyElapsed, 0)
	maximumDownloadTime := o.MaximumTimeToElapse - timeElapsedForTTFB

	var timing ConnectionTiming
	if !c.warmed {
		timing = ConnectionTiming{
			DNSMs:     o.DNSResolutionTime,
			ConnectMs: handshakeAndRequest - o.DNSResolutionTime,
			TTFBMs:    timeToFirstByte,
		}
		if c.ssl {
			timing.SSLMs = twoWayLatency
		}
	} else {
		timing = ConnectionTiming{TTFBMs: timeToFirstByte}
	}

	if twoWayLatency == 0 {
		return c.simulateThroughputBound(bytes, timeElapsedForTTFB, maximumDownloadTime, timing)
	}

	maximumWindow := c.maximumCongestionWindow()
	roundTrips := int(math.Ceil(handshakeAndRequest / twoWayLatency))
	congestionWindow := math.Min(c.congestionWindow, maximumWindow)

	totalBytesDownloaded := 0.0
	if timeElapsedForTTFB > 0 {
		totalBytesDownloaded = congestionWindow * tcpSegmentSize
	} else {
		roundTrips = 0
	}

	downloadTimeElapsed := 0.0
	bytesRemaining := bytes - totalBytesDownloaded
	for bytesRemaining > 0 && downloadTimeElapsed <= maximumDownloadTime {
		roundTrips++
		congestionWindow = math.Min(maximumWindow, congestionWindow*2)

		windowBytes := congestionWindow * tcpSegmentSize
		if bytesRemaining <= windowBytes {
			// the last window only takes the share of the round trip its bytes need
			downloadTimeElapsed += twoWayLatency * bytesRemaining / windowBytes
			totalBytesDownloaded += bytesRemaining
			bytesRemaining = 0
			break
		}
		downloadTimeElapsed += twoWayLatency
		bytesRemaining -= windowBytes
		totalBytesDownloaded += windowBytes
	}

	extra := 0.0
	if c.h2 {
		extra = math.Max(totalBytesDownloaded-bytes, 0)
	}

	return DownloadResult{
		RoundTrips:           roundTrips,
		TimeElapsed:          timeElapsedForTTFB + downloadTimeElapsed,
		BytesDownloaded:      math.Max(math.Min(totalBytesDownloaded, bytes), 0),
		ExtraBytesDownloaded: extra,
		CongestionWindow:     congestionWindow,
		Timing:               timing,
	}
}

// simulateThroughputBound handles zero-latency connections, where slow start
// has no round trips to grow over and transfer time is bytes over throughput.
func (c *Connection) simulateThroughputBound(bytes, timeElapsedForTTFB, maximumDownloadTime float64, timing ConnectionTiming) DownloadResult {
	remaining := math.Max(bytes, 0)
	bytesPerMs := c.throughput / 8 / 1000

	downloadTime := 0.0
	if remaining > 0 && !math.IsInf(bytesPerMs, 1) {
		downloadTime = remaining / bytesPerMs
	}

	downloaded := remaining
	if downloadTime > maximumDownloadTime || (maximumDownloadTime < 0 && remaining > 0) {
		downloadTime = math.Max(maximumDownloadTime, 0)
		downloaded = 0
		if downloadTime > 0 {
			downloaded = math.Min(remaining, downloadTime*bytesPerMs)
		}
	}

	return DownloadResult{
		TimeElapsed:      timeElapsedForTTFB + downloadTime,
		BytesDownloaded:  downloaded,
		CongestionWindow: c.congestionWindow,
		Timing:           timing,
	}
}
