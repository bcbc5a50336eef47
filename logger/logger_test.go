package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		desc     string
		input    string
		expected Level
		hasErr   bool
	}{
		{desc: "debug", input: "debug", expected: DebugLevel},
		{desc: "upper case info", input: "INFO", expected: InfoLevel},
		{desc: "empty defaults to info", input: "", expected: InfoLevel},
		{desc: "warning alias", input: "warning", expected: WarnLevel},
		{desc: "error", input: " error ", expected: ErrorLevel},
		{desc: "fatal", input: "fatal", expected: FatalLevel},
		{desc: "unknown", input: "verbose", expected: InfoLevel, hasErr: true},
	}

	for _, tt := range tests {
		level, err := ParseLevel(tt.input)
		if tt.hasErr {
			require.Error(err, tt.desc)
		} else {
			require.NoError(err, tt.desc)
		}
		require.Equal(tt.expected, level, tt.desc)
	}
}

func TestSlogLogger_JSON(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, InfoLevel, false, false)

	l.Debug("suppressed")
	require.Zero(buf.Len())

	l.With("host", "10.0.0.5").Info("connected", "serial", "SPD3XJGQ805993")

	var record map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &record))
	require.Equal("connected", record["msg"])
	require.Equal("10.0.0.5", record["host"])
	require.Equal("SPD3XJGQ805993", record["serial"])
	require.Contains(record, "ts")
}

func TestSlogLogger_SetLevel(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, ErrorLevel, false, false)
	require.Equal(ErrorLevel, l.Level())

	child := l.With("component", "session")
	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, child.Level())

	child.Debug("request", "cmd", "*IDN?")
	require.Contains(buf.String(), `"cmd":"*IDN?"`)
}

func TestSlogLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWriter(&buf, InfoLevel, false, true)
	l.Warn("address refused", "addr", "10.0.0.5:5025")

	require.Contains(t, buf.String(), "address refused")
	require.Contains(t, buf.String(), "10.0.0.5:5025")
}

func TestSetDefault(t *testing.T) {
	require := require.New(t)

	prev := GetLogger()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(NewSlogWriter(&buf, InfoLevel, false, false))
	SetDefault(nil)

	Info("default replaced", "port", 5025)
	require.Contains(buf.String(), `"msg":"default replaced"`)
	require.Contains(buf.String(), `"port":5025`)
}
