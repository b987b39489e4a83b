// Package grapherror is the tagged error type shared by the graph builder,
// the simulator and the metric framework. Callers map a Category to their own
// presentation; the engine never decides user-facing severity.
package grapherror

import (
	"github.com/trannam110702/lighthouse-sub001/errors"
)

// Sentinels, one per category. A *GraphError matches its category sentinel
// under errors.Is.
var (
	ErrGraphConstruction        = errors.New("graph construction error")
	ErrSimulation               = errors.New("simulation error")
	ErrInvalidThrottlingProfile = errors.New("invalid throttling profile")
	ErrMetric                   = errors.New("metric error")
)

var sentinels = map[Category]error{
	CategoryConstruction: ErrGraphConstruction,
	CategorySimulation:   ErrSimulation,
	CategoryThrottling:   ErrInvalidThrottlingProfile,
	CategoryMetric:       ErrMetric,
}

// GraphError represents an error in the simulation core with structured context
type GraphError struct {
	Err         error                  // Underlying error
	Category    Category               // Main category
	Subcategory string                 // Optional subcategory
	UserMessage string                 // Short message for the caller's presentation layer
	Context     map[string]interface{} // Additional context for debugging
}

// Error implements the error interface
func (e *GraphError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *GraphError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's category.
func (e *GraphError) Is(target error) bool {
	sentinel, ok := sentinels[e.Category]
	return ok && target == sentinel
}

// New creates a new GraphError with the specified category and messages
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
	}
}

// Newf creates a new GraphError with a formatted error message
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return &GraphError{
		Err:         errors.Newf(format, args...),
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
	}
}

// WithSubcategory adds a subcategory to the error
func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

// WithContext adds a context key-value pair for debugging
func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	e.Context[key] = value
	return e
}

// WithContextMap adds multiple context key-value pairs
func (e *GraphError) WithContextMap(ctx map[string]interface{}) *GraphError {
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}

// Construction builds a graph construction error.
func Construction(sub, format string, args ...interface{}) *GraphError {
	return Newf(CategoryConstruction, "failed to build dependency graph", format, args...).WithSubcategory(sub)
}

// Simulation builds a simulation error. These indicate defects, not bad input.
func Simulation(sub, format string, args ...interface{}) *GraphError {
	return Newf(CategorySimulation, "simulation failed", format, args...).WithSubcategory(sub)
}

// Throttling builds an invalid throttling profile error.
func Throttling(sub, format string, args ...interface{}) *GraphError {
	return Newf(CategoryThrottling, "invalid throttling profile", format, args...).WithSubcategory(sub)
}

// MissingInput builds a metric error naming the input the metric needed.
func MissingInput(input string) *GraphError {
	return Newf(CategoryMetric, "required trace input is missing", "missing required input: %s", input).
		WithSubcategory(SubcategoryMissingInput).
		WithContext(ContextInput, input)
}

// UnknownMetric builds a metric error for a kind with no implementation. err
// carries the caller's classification of the lookup failure.
func UnknownMetric(name string, err error) *GraphError {
	return New(CategoryMetric, err, "unknown metric").
		WithSubcategory(SubcategoryUnknownMetric).
		WithContext(ContextMetric, name)
}

// Context keys set by the metric constructors.
const (
	ContextInput  = "input"
	ContextMetric = "metric"
)
