package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saferun/internal/platform/config"
)

func TestSetupWritesJSONAndHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	ctx := WithFields(context.Background(), map[string]any{"session_id": "s-1"})
	log.Ctx(ctx).Info().Msg("hidden")
	log.Ctx(ctx).Warn().Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "saferun", entry["service"])
}

func TestSetupFallsBackToInfoOnUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(config.LogConfig{Level: "chatty"}, &buf)
	logger.Debug().Msg("dropped")
	logger.Info().Msg("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
