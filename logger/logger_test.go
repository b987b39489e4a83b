package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
		wantErr    bool
	}{
		{
			name:       "JSON output mode",
			jsonOutput: true,
			wantErr:    false,
		},
		{
			name:       "Console output mode",
			jsonOutput: false,
			wantErr:    false,
		},
		{
			name:       "Console output mode with debug verbosity",
			jsonOutput: false,
			verbosity:  VerbosityDebug,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset global logger
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput, tt.verbosity)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if Logger == nil {
					t.Error("Initialize() did not set global Logger")
				}
				if JSONOutput != tt.jsonOutput {
					t.Errorf("Initialize() JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
				}
				enabled := Logger.Desugar().Core().Enabled(zapcore.DebugLevel)
				if enabled != (tt.verbosity >= VerbosityDebug) {
					t.Errorf("debug enabled = %v at verbosity %d", enabled, tt.verbosity)
				}
			}

			// Cleanup
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{VerbosityTrace, zapcore.DebugLevel},
		{9, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(LevelName(tt.verbosity), func(t *testing.T) {
			assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity))
		})
	}

	assert.False(t, ShouldLogTrace(VerbosityDebug))
	assert.True(t, ShouldLogTrace(VerbosityTrace))
	assert.Equal(t, "Trace (-vvv+)", LevelName(7))
	assert.Equal(t, "Unknown", LevelName(-2))
}

func TestCleanup(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, Cleanup)

	Logger = zap.NewNop().Sugar()
	assert.NotPanics(t, Cleanup)
	assert.NotNil(t, Logger, "Cleanup() should not nil out the logger")
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithComponent(ctx, "engine")
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "engine"}, FieldsFromContext(ctx))
}

func TestComponentLoggerCarriesNameAndContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Logger = zap.New(core).Sugar()
	t.Cleanup(func() { Logger = zap.NewNop().Sugar() })

	ComponentLogger("simulator").Debugw("simulated graph", FieldLabel, "optimisticFirstContentfulPaint")
	LoggerFromContext(WithRunID(context.Background(), "run-7")).Infow("run finished")
	Debugw("package level")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "simulator", entries[0].LoggerName)
	assert.Equal(t, "optimisticFirstContentfulPaint", entries[0].ContextMap()[FieldLabel])
	assert.Equal(t, "run-7", entries[1].ContextMap()[FieldRunID])
	assert.Equal(t, "package level", entries[2].Message)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewNop().Sugar()
	assert.Same(t, l, OrNop(l))
}

// TestLoggingFunctions tests the package-level logging functions
func TestLoggingFunctions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core).Sugar()
	t.Cleanup(func() { Logger = zap.NewNop().Sugar() })

	Info("info")
	Infof("info %d", 2)
	Infow("info structured", "key", "value")
	Warnw("warn structured")
	Error("error")
	Errorf("error %d", 2)
	Errorw("error structured", "key", "value")
	Debugw("filtered out")

	assert.Equal(t, 7, logs.Len())

	Logger = nil
	assert.NotPanics(t, func() {
		Info("dropped")
		Errorw("dropped")
	})
}
