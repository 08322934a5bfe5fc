package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "not json: %s", buf.String())
	return entry
}

func TestNewJSONCarriesVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Version: "1.4.0", Writer: &buf})

	logger.With("service", "tshirtstore").Info("started")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "tshirtstore", entry["service"])
	assert.Equal(t, "1.4.0", entry["version"])
	assert.NotContains(t, entry, "trace_id")
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Format: "TEXT", Writer: &buf}).Info("hello", "module", "http")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "module=http")
}

func TestTraceContextIsAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.With("layer", "adapter").InfoContext(ctx, "traced")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.Equal(t, "adapter", entry["layer"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Writer: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseLevel(raw), raw)
	}
}
