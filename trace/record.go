// Package trace holds the already-parsed inputs of the simulation core:
// network records, main-thread tasks and navigation metadata.
//
// JSON CONVENTION: All fields use snake_case.
package trace

import (
	"net/url"
	"strings"
)

// ResourceType classifies what a network record fetched.
type ResourceType string

const (
	ResourceDocument   ResourceType = "Document"
	ResourceScript     ResourceType = "Script"
	ResourceStylesheet ResourceType = "Stylesheet"
	ResourceImage      ResourceType = "Image"
	ResourceFont       ResourceType = "Font"
	ResourceXHR        ResourceType = "XHR"
	ResourceFetch      ResourceType = "Fetch"
	ResourceMedia      ResourceType = "Media"
	ResourceOther      ResourceType = "Other"
)

// Priority is the browser-assigned fetch priority.
type Priority string

const (
	PriorityVeryLow  Priority = "VeryLow"
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityVeryHigh Priority = "VeryHigh"
)

// Rank orders priorities; higher is more important. Unknown priorities rank as Medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityVeryLow:
		return 0
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	case PriorityVeryHigh:
		return 4
	default:
		return 2
	}
}

// Protocol values seen on records.
const (
	ProtocolHTTP11 = "http/1.1"
	ProtocolH2     = "h2"
	ProtocolH3     = "h3"
	ProtocolData   = "data"
	ProtocolBlob   = "blob"
)

// InitiatorType describes why a request was issued.
type InitiatorType string

const (
	InitiatorParser   InitiatorType = "parser"
	InitiatorScript   InitiatorType = "script"
	InitiatorRedirect InitiatorType = "redirect"
	InitiatorPreload  InitiatorType = "preload"
	InitiatorOther    InitiatorType = "other"
)

// Initiator links a record to whatever caused it.
type Initiator struct {
	Type      InitiatorType `json:"type"`
	RequestID string        `json:"request_id,omitempty"` // direct initiator request, when known
	URL       string        `json:"url,omitempty"`        // initiating document or script url
	StackURLs []string      `json:"stack_urls,omitempty"` // script urls on the initiating call stack
}

// ConnectionTiming holds the observed connection setup phases in milliseconds.
// Zero values mean the phase was not observed (reused connection, cache hit).
type ConnectionTiming struct {
	DNSMs     float64 `json:"dns_ms,omitempty"`
	ConnectMs float64 `json:"connect_ms,omitempty"`
	SSLMs     float64 `json:"ssl_ms,omitempty"`
}

// Record is one network request. Records are immutable once handed to the
// graph builder. Times are milliseconds on the trace timeline.
type Record struct {
	RequestID            string           `json:"request_id"`
	URL                  string           `json:"url"`
	ResourceType         ResourceType     `json:"resource_type"`
	Priority             Priority         `json:"priority"`
	TransferSize         int64            `json:"transfer_size"`
	ResourceSize         int64            `json:"resource_size,omitempty"`
	StartTime            float64          `json:"start_time"`
	ResponseReceivedTime float64          `json:"response_received_time,omitempty"`
	EndTime              float64          `json:"end_time"`
	ServerResponseTime   *float64         `json:"server_response_time,omitempty"`
	Protocol             string           `json:"protocol,omitempty"`
	ConnectionID         string           `json:"connection_id,omitempty"`
	ConnectionReused     bool             `json:"connection_reused,omitempty"`
	FromDiskCache        bool             `json:"from_disk_cache,omitempty"`
	FrameID              string           `json:"frame_id,omitempty"`
	Initiator            Initiator        `json:"initiator"`
	RedirectSource       string           `json:"redirect_source,omitempty"`
	IsAsync              bool             `json:"is_async,omitempty"`
	Timing               ConnectionTiming `json:"timing"`
}

func (r *Record) parsedURL() *url.URL {
	u, err := url.Parse(r.URL)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// Scheme returns the lower-cased url scheme.
func (r *Record) Scheme() string {
	return strings.ToLower(r.parsedURL().Scheme)
}

// Host returns the url host including any port.
func (r *Record) Host() string {
	return r.parsedURL().Host
}

// Origin returns scheme://host, the security origin used for connection pooling.
func (r *Record) Origin() string {
	u := r.parsedURL()
	if u.Scheme == "" || u.Host == "" {
		return r.Scheme() + ":"
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// IsSecure reports whether the connection needs a TLS handshake.
func (r *Record) IsSecure() bool {
	switch r.Scheme() {
	case "https", "wss":
		return true
	}
	return false
}

// IsNonNetworkProtocol reports data: and blob: style requests that never hit the network.
func (r *Record) IsNonNetworkProtocol() bool {
	switch r.Scheme() {
	case "data", "blob", "file", "chrome-extension", "about":
		return true
	}
	return r.Protocol == ProtocolData || r.Protocol == ProtocolBlob
}

// IsMultiplexed reports whether requests to this origin share one connection.
func (r *Record) IsMultiplexed() bool {
	return r.Protocol == ProtocolH2 || r.Protocol == ProtocolH3
}

// IsDocument reports whether the record fetched a document.
func (r *Record) IsDocument() bool {
	return r.ResourceType == ResourceDocument
}
