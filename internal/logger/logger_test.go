package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: Info, Format: FormatJSON, App: "cattle", Output: &buf}).
		With(map[string]any{"component": "lots"})

	log.Debug("hidden", nil)
	log.Warn("certification aborted", map[string]any{"requestId": "req-1", "error": errors.New("boom")})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "certification aborted", entry["msg"])
	assert.Equal(t, "cattle", entry["app"])
	assert.Equal(t, "lots", entry["component"])
	assert.Equal(t, "boom", entry["error"])
}

func TestJSONFormatFallsBackToTextOnEncodeError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: Info, Format: FormatJSON, Output: &buf})

	log.Error("cannot encode", map[string]any{"requestId": "req-1", "callback": func() {}})

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "msg=cannot encode")
	assert.Contains(t, out, "requestId=req-1")
	assert.Contains(t, out, "logError=")
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, Warn, ParseLevel(" WARNING "))
	assert.Equal(t, Info, ParseLevel("verbose"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat(""))
}
