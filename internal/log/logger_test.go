package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter("debug", FormatConsole, &buf), "hub")

	logger.Debug().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "component=hub")

	buf.Reset()
	quiet := NewWithWriter("error", FormatConsole, &buf)
	quiet.Info().Msg("dropped")
	require.Empty(t, buf.String())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter("info", FormatJSON, &buf), "gateway")

	logger.Info().Str("user", "alice").Msg("connected")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "connected", line["message"])
	require.Equal(t, "gateway", line["component"])
	require.Equal(t, "alice", line["user"])
	require.Equal(t, "info", line["level"])
}
