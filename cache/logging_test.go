package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/objcache/objstore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{input: "debug", expected: LogLevelDebug},
		{input: "INFO", expected: LogLevelInfo},
		{input: "", expected: LogLevelInfo},
		{input: "warning", expected: LogLevelWarn},
		{input: " error ", expected: LogLevelError},
		{input: "verbose", expected: LogLevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, JSON: true, Output: &buf})

	logger.WithOperation("get").
		WithRef(objstore.NewObjectRef("bucket", "key")).
		Debug(context.Background(), "cache hit", "size", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cache hit", record["msg"])
	assert.Equal(t, "get", record["operation"])
	assert.Equal(t, "bucket", record["bucket"])
	assert.Equal(t, "key", record["key"])
	assert.Equal(t, float64(3), record["size"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

	logger.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	logger.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_Nop(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		NewNopLogger().With("a", 1).Error(ctx, "discarded")

		var nilLogger *Logger
		nilLogger.WithOperation("op").Info(ctx, "discarded")
	})
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.Info(context.Background(), "wrapped")
	assert.Contains(t, buf.String(), "msg=wrapped")
}
