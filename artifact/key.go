// Package artifact caches computed metric results. Keys are content hashes
// of the inputs, so two structurally equal graphs share an entry no matter
// which objects hold them.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strconv"

	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// KeyVersion changes whenever the encoding below changes.
const KeyVersion = "v2"

// Key hashes the canonical graph, the navigation timestamps, the profile
// and the metric kind. Extra strings fold in anything else that changes
// the result, such as simulator options.
func Key(g *graph.Graph, nav *trace.Navigation, profile simulator.Profile, kind string, extra ...string) string {
	h := sha256.New()
	writeField(h, "version", KeyVersion)
	writeField(h, "kind", kind)
	writeProfile(h, profile)
	writeNavigation(h, nav)
	writeGraph(h, g)
	for i, e := range extra {
		writeField(h, "extra."+strconv.Itoa(i), e)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, name, value string) {
	fmt.Fprintf(h, "%s=%d:%s;", name, len(value), value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeProfile(h hash.Hash, p simulator.Profile) {
	writeField(h, "rtt", formatFloat(p.RTTMs))
	writeField(h, "throughput", formatFloat(p.ThroughputKbps))
	writeField(h, "upload", formatFloat(p.UploadThroughputKbps))
	writeField(h, "cpu", formatFloat(p.CPUSlowdownMultiplier))
}

func writeTimestamp(h hash.Hash, name string, v *float64) {
	if v == nil {
		writeField(h, name, "")
		return
	}
	writeField(h, name, formatFloat(*v))
}

func writeNavigation(h hash.Hash, nav *trace.Navigation) {
	if nav == nil {
		writeField(h, "nav", "")
		return
	}
	writeField(h, "nav.url", nav.MainDocumentURL)
	writeField(h, "nav.start", formatFloat(nav.NavigationStart))
	writeTimestamp(h, "nav.fcp", nav.FirstContentfulPaint)
	writeTimestamp(h, "nav.lcp", nav.LargestContentfulPaint)
	writeTimestamp(h, "nav.si", nav.ObservedSpeedIndex)
}

// writeGraph encodes nodes in id order with their sorted dependency ids.
func writeGraph(h hash.Hash, g *graph.Graph) {
	if g == nil {
		writeField(h, "graph", "")
		return
	}
	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	writeField(h, "root", g.Root().ID())

	for _, n := range nodes {
		writeField(h, "node", n.ID())
		writeField(h, "type", string(n.Type()))
		writeField(h, "start", formatFloat(n.StartTime()))
		writeField(h, "end", formatFloat(n.EndTime()))
		writeField(h, "main", strconv.FormatBool(n.IsMainDocument()))

		switch node := n.(type) {
		case *graph.NetworkNode:
			writeRecord(h, node.Record())
		case *graph.CPUNode:
			for _, e := range node.Events() {
				writeField(h, "event", e.Name)
				writeField(h, "event.url", e.URL)
			}
		}

		var deps []string
		for _, d := range n.Dependencies() {
			deps = append(deps, d.ID())
		}
		sort.Strings(deps)
		for _, d := range deps {
			writeField(h, "dep", d)
		}
	}
}

// writeRecord covers every record field, including the observed timing
// that network analysis turns into per-origin latency.
func writeRecord(h hash.Hash, r *trace.Record) {
	writeField(h, "url", r.URL)
	writeField(h, "resource_type", string(r.ResourceType))
	writeField(h, "priority", string(r.Priority))
	writeField(h, "protocol", r.Protocol)
	writeField(h, "transfer_size", strconv.FormatInt(r.TransferSize, 10))
	writeField(h, "resource_size", strconv.FormatInt(r.ResourceSize, 10))
	writeField(h, "response_received", formatFloat(r.ResponseReceivedTime))
	writeTimestamp(h, "server_response_time", r.ServerResponseTime)
	writeField(h, "connection_id", r.ConnectionID)
	writeField(h, "connection_reused", strconv.FormatBool(r.ConnectionReused))
	writeField(h, "disk_cache", strconv.FormatBool(r.FromDiskCache))
	writeField(h, "frame", r.FrameID)
	writeField(h, "redirect_source", r.RedirectSource)
	writeField(h, "async", strconv.FormatBool(r.IsAsync))
	writeField(h, "timing.dns", formatFloat(r.Timing.DNSMs))
	writeField(h, "timing.connect", formatFloat(r.Timing.ConnectMs))
	writeField(h, "timing.ssl", formatFloat(r.Timing.SSLMs))
	writeField(h, "initiator", string(r.Initiator.Type))
	writeField(h, "initiator.request", r.Initiator.RequestID)
	writeField(h, "initiator.url", r.Initiator.URL)
	for _, u := range r.Initiator.StackURLs {
		writeField(h, "initiator.stack", u)
	}
}
