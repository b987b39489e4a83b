package testing

import (
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// RecordOption customises a fixture record.
type RecordOption func(*trace.Record)

// Record builds an HTTP/1.1 network record that starts at 0 and ends at 100.
func Record(id, url string, opts ...RecordOption) *trace.Record {
	r := &trace.Record{
		RequestID:    id,
		URL:          url,
		ResourceType: trace.ResourceOther,
		Priority:     trace.PriorityMedium,
		TransferSize: 1000,
		StartTime:    0,
		EndTime:      100,
		Protocol:     trace.ProtocolHTTP11,
		Initiator:    trace.Initiator{Type: trace.InitiatorOther},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document marks the record as a document in the given frame.
func Document(frameID string) RecordOption {
	return func(r *trace.Record) {
		r.ResourceType = trace.ResourceDocument
		r.Priority = trace.PriorityVeryHigh
		r.FrameID = frameID
	}
}

func OfType(t trace.ResourceType) RecordOption {
	return func(r *trace.Record) { r.ResourceType = t }
}

func WithPriority(p trace.Priority) RecordOption {
	return func(r *trace.Record) { r.Priority = p }
}

// Timing sets the observed start and end times.
func Timing(start, end float64) RecordOption {
	return func(r *trace.Record) {
		r.StartTime = start
		r.EndTime = end
		r.ResponseReceivedTime = end
	}
}

func Size(bytes int64) RecordOption {
	return func(r *trace.Record) { r.TransferSize = bytes }
}

func Protocol(p string) RecordOption {
	return func(r *trace.Record) { r.Protocol = p }
}

// InitiatedBy links the record to the request that issued it.
func InitiatedBy(requestID string) RecordOption {
	return func(r *trace.Record) {
		r.Initiator.Type = trace.InitiatorParser
		r.Initiator.RequestID = requestID
	}
}

// InitiatedByURL sets an initiator url with the given initiator type.
func InitiatedByURL(t trace.InitiatorType, url string, stack ...string) RecordOption {
	return func(r *trace.Record) {
		r.Initiator.Type = t
		r.Initiator.URL = url
		r.Initiator.StackURLs = stack
	}
}

// RedirectedFrom marks the record as the next hop of a redirect.
func RedirectedFrom(requestID string) RecordOption {
	return func(r *trace.Record) { r.RedirectSource = requestID }
}

func FromDiskCache() RecordOption {
	return func(r *trace.Record) { r.FromDiskCache = true }
}

func ServerResponseTime(ms float64) RecordOption {
	return func(r *trace.Record) { r.ServerResponseTime = &ms }
}

// Task builds a top-level task.
func Task(start, duration float64, events ...trace.TaskEvent) *trace.Task {
	return &trace.Task{Name: trace.EventRunTask, StartTime: start, Duration: duration, Events: events}
}

// Event builds a nested trace event starting at start.
func Event(name string, start float64, url string) trace.TaskEvent {
	return trace.TaskEvent{Name: name, StartTime: start, URL: url}
}

// Navigation returns navigation metadata for url with the given paint timestamps.
func Navigation(url string, fcp, lcp float64) *trace.Navigation {
	return &trace.Navigation{
		MainDocumentURL:        url,
		RequestedURL:           url,
		FirstContentfulPaint:   trace.Timestamp(fcp),
		LargestContentfulPaint: trace.Timestamp(lcp),
	}
}
