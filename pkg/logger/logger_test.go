package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelFiltering(t *testing.T) {
	require.NoError(t, Initialize(Config{Level: WarnLevel, Component: "test"}))
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("should be filtered")
	Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestLogJSONOutput(t *testing.T) {
	require.NoError(t, Initialize(Config{Level: TraceLevel, JSON: true, Component: "cat"}))
	var buf bytes.Buffer
	SetOutput(&buf)

	Error("boom", String("tool", "ruff"), Int("code", 2))

	line := strings.TrimSpace(buf.String())
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "boom", entry.Message)
	assert.Equal(t, "cat", entry.Component)
	assert.Equal(t, "ruff", entry.Fields["tool"])
}

func TestSinkIsConcurrencySafe(t *testing.T) {
	require.NoError(t, Initialize(Config{Level: TraceLevel, JSON: true}))
	var buf bytes.Buffer
	SetOutput(&buf)
	sink := NewSink(defaultLogger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sink.Log(InfoLevel, "concurrent", Int("n", n))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
}
