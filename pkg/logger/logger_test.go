package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := output
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(prev)
		Configure("text", LogLevelInfo, nil)
	})
	return &buf
}

func TestTextHandlerIncludesComponentAndAttrs(t *testing.T) {
	buf := withBuffer(t)
	Configure("text", LogLevelInfo, nil)

	WithInterface(Get(Radvd), "veth0").Info("radvd started", "pid", 42)

	line := buf.String()
	assert.Contains(t, line, "[radvd]")
	assert.Contains(t, line, "radvd started")
	assert.Contains(t, line, "interface=veth0")
	assert.Contains(t, line, "pid=42")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestComponentLevelOverride(t *testing.T) {
	buf := withBuffer(t)
	Configure("text", LogLevelWarn, map[string]LogLevel{Radvd: LogLevelDebug})

	Get(Radvd).Debug("visible")
	Get(Manager).Info("hidden")

	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "hidden")

	assert.Equal(t, LogLevelWarn, GetDefaultLevel())
	assert.Equal(t, map[string]LogLevel{Radvd: LogLevelDebug}, GetComponentLevels())
}

func TestNestedComponentInheritsParentLevel(t *testing.T) {
	buf := withBuffer(t)
	Configure("text", LogLevelError, nil)
	SetComponentLevel(Radvd, LogLevelDebug)

	Get(Radvd + ".veth0").Debug("inherited")
	assert.Contains(t, buf.String(), "inherited")

	ClearComponentLevel(Radvd)
	buf.Reset()
	Get(Radvd + ".veth0").Debug("suppressed")
	assert.Empty(t, buf.String())
}

func TestJSONFormat(t *testing.T) {
	buf := withBuffer(t)
	Configure("json", LogLevelInfo, nil)

	Get(Watchdog).Info("target is UP", "target", "radvd:veth0")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "watchdog", rec["component"])
	assert.Equal(t, "radvd:veth0", rec["target"])
}
