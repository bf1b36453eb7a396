package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	log := New(false, false, &buf)
	log.Debug("hidden")
	log.Info("shown", zap.String("abi", "x86"))
	require.NoError(t, log.Sync())

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "INFO")
	require.Contains(t, out, `"abi": "x86"`)
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(true, false, &buf)
	log.Debug("trying candidate abi")
	require.Contains(t, buf.String(), "trying candidate abi")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(false, true, &buf)
	log.Warn("no compatible native libraries found", zap.Int("attempted", 2))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "no compatible native libraries found", entry["msg"])
	require.EqualValues(t, 2, entry["attempted"])
}
