package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across lantern.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID = "run_id"
	FieldLabel = "label" // simulation label, diagnostics only

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMetric    = "metric"
	FieldProfile   = "profile"
	FieldCacheKey  = "cache_key"

	// Timing
	FieldDurationMS  = "duration_ms"
	FieldSimulatedMS = "simulated_ms"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount      = "count"
	FieldNodeCount  = "node_count"
	FieldEdgeCount  = "edge_count"
	FieldIterations = "iterations"

	// Graph nodes
	FieldNodeID   = "node_id"
	FieldNodeType = "node_type"

	// Files and paths
	FieldFile = "file"

	// Network
	FieldURL    = "url"
	FieldOrigin = "origin"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds an engine run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Simulator struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func New() *Simulator {
//	    return &Simulator{
//	        logger: logger.ComponentLogger("simulator"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
