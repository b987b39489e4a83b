package trace

// Navigation describes the page load the records and tasks belong to.
// Paint timestamps share the trace timeline with records and tasks; a nil
// pointer means the trace never observed the event.
type Navigation struct {
	MainDocumentURL        string   `json:"main_document_url"`
	RequestedURL           string   `json:"requested_url,omitempty"`
	FrameID                string   `json:"frame_id,omitempty"`
	NavigationStart        float64  `json:"navigation_start"`
	FirstContentfulPaint   *float64 `json:"first_contentful_paint,omitempty"`
	LargestContentfulPaint *float64 `json:"largest_contentful_paint,omitempty"`
	ObservedSpeedIndex     *float64 `json:"observed_speed_index,omitempty"`
}

// Timestamp is a convenience for building optional timestamps.
func Timestamp(v float64) *float64 {
	return &v
}
