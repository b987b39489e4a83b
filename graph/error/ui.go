package grapherror

import (
	"fmt"
	"sort"

	"github.com/trannam110702/lighthouse-sub001/errors"
)

// defaultMessages provides caller-facing messages for each category
var defaultMessages = map[Category]string{
	CategoryConstruction: "Failed to build the dependency graph from the capture",
	CategorySimulation:   "Simulation failed - this is a bug in the simulator",
	CategoryThrottling:   "The throttling profile is invalid",
	CategoryMetric:       "The metric could not be estimated from this capture",
}

// ToUIMessage converts the error to a message suitable for display
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	if msg, ok := defaultMessages[e.Category]; ok {
		return msg
	}
	return "An error occurred"
}

// ToLogFields converts error to structured log fields
// This is useful for passing to logger.Errorw()
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
		"user_message", e.UserMessage,
	}

	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}

	return fields
}

// IsCategory checks if the error matches a specific category
func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}

// As extracts the *GraphError from err's chain.
func As(err error) (*GraphError, bool) {
	var ge *GraphError
	if err == nil || !errors.As(err, &ge) {
		return nil, false
	}
	return ge, true
}

func hasCategory(err error, cat Category) bool {
	ge, ok := As(err)
	return ok && ge.Category == cat
}

// IsConstruction reports whether err is a graph construction error
func IsConstruction(err error) bool { return hasCategory(err, CategoryConstruction) }

// IsSimulation reports whether err is a simulation error
func IsSimulation(err error) bool { return hasCategory(err, CategorySimulation) }

// IsThrottling reports whether err is an invalid throttling profile error
func IsThrottling(err error) bool { return hasCategory(err, CategoryThrottling) }

// IsMissingInput reports whether err names a missing metric input
func IsMissingInput(err error) bool {
	ge, ok := As(err)
	return ok && ge.Category == CategoryMetric && ge.Subcategory == SubcategoryMissingInput
}

// IsUnknownMetric reports whether err names a metric kind with no implementation
func IsUnknownMetric(err error) bool {
	ge, ok := As(err)
	return ok && ge.Category == CategoryMetric && ge.Subcategory == SubcategoryUnknownMetric
}

// MissingInputName returns the input named by a missing-input error.
func MissingInputName(err error) string {
	ge, ok := As(err)
	if !ok {
		return ""
	}
	if v, ok := ge.Context[ContextInput]; ok {
		return fmt.Sprint(v)
	}
	return ""
}
