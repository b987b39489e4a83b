package trace

// Trace event names the graph builder and the metrics care about.
const (
	EventRunTask                    = "RunTask"
	EventEvaluateScript             = "EvaluateScript"
	EventFunctionCall               = "FunctionCall"
	EventV8Compile                  = "v8.compile"
	EventTimerInstall               = "TimerInstall"
	EventTimerFire                  = "TimerFire"
	EventInvalidateLayout           = "InvalidateLayout"
	EventScheduleStyleRecalculation = "ScheduleStyleRecalculation"
	EventXHRReadyStateChange        = "XHRReadyStateChange"
	EventParseAuthorStyleSheet      = "ParseAuthorStyleSheet"
	EventResourceSendRequest        = "ResourceSendRequest"
	EventLayout                     = "Layout"
	EventPaint                      = "Paint"
	EventParseHTML                  = "ParseHTML"
)

// TaskEvent is a trace event nested inside a top-level task.
type TaskEvent struct {
	Name          string   `json:"name"`
	StartTime     float64  `json:"start_time"`
	Duration      float64  `json:"duration,omitempty"`
	URL           string   `json:"url,omitempty"`
	StackURLs     []string `json:"stack_urls,omitempty"`
	TimerID       string   `json:"timer_id,omitempty"`
	RequestID     string   `json:"request_id,omitempty"`
	FrameID       string   `json:"frame_id,omitempty"`
	ReadyState    int      `json:"ready_state,omitempty"`
	StyleSheetURL string   `json:"style_sheet_url,omitempty"`
}

// Task is one top-level main-thread task. Times are milliseconds on the
// trace timeline. Events holds everything that ran inside the task.
type Task struct {
	Name      string      `json:"name"`
	StartTime float64     `json:"start_time"`
	Duration  float64     `json:"duration"`
	Events    []TaskEvent `json:"events,omitempty"`
}

// EndTime is StartTime + Duration.
func (t *Task) EndTime() float64 {
	return t.StartTime + t.Duration
}
