package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

func TestNew_PerOutputLevels(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	log := logger.New(
		logger.WithWriter(&console),
		logger.WithLevel(slog.LevelWarn),
		logger.WithOutput(&file, slog.LevelDebug, logger.FormatText),
	)

	log.Debug("registering channel")
	log.Warn("deregistering unknown channel")

	assert.NotContains(t, console.String(), "registering channel")
	assert.Contains(t, console.String(), "deregistering unknown channel")
	assert.Contains(t, file.String(), "registering channel")
	assert.Contains(t, file.String(), "deregistering unknown channel")
}

func TestNew_LevelNames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithWriter(&buf), logger.WithJSONFormatter())

	log.Log(t.Context(), logger.LevelCritical, "fatal state")
	log.Warn("soft failure")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "CRITICAL", first["level"])
	assert.Equal(t, "WARNING", second["level"])
}

func TestNew_WithAttrAppliesToAllOutputs(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	log := logger.New(
		logger.WithWriter(&a),
		logger.WithOutput(&b, slog.LevelInfo, logger.FormatJSON),
		logger.WithAttr(slog.String("service", "chatrelay")),
	)
	log.Info("started")

	assert.Contains(t, a.String(), "service=chatrelay")
	assert.Contains(t, b.String(), `"service":"chatrelay"`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestNew_WriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithWriter(failingWriter{}),
		logger.WithOutput(&buf, slog.LevelInfo, logger.FormatText),
	)

	assert.NotPanics(t, func() { log.Error("still logged elsewhere") })
	assert.Contains(t, buf.String(), "still logged elsewhere")
}

func TestSource(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.New(logger.WithWriter(&buf))
	log := logger.Source(base, "chat.channel", logger.ProviderID("twitch"), logger.ChannelID("mychan"))
	log.Info("pushed")

	out := buf.String()
	assert.Contains(t, out, "component=chat.channel")
	assert.Contains(t, out, "provider_id=twitch")
	assert.Contains(t, out, "channel_id=mychan")

	assert.NotPanics(t, func() { logger.Source(nil, "orphan").Info("discarded") })
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, logger.LevelCritical, logger.ParseLevel("critical"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestNewFromConfig_OpensLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "chatrelay.log")
	var console bytes.Buffer
	log, closer, err := logger.NewFromConfig(logger.Config{
		Level:     "error",
		Format:    "text",
		File:      path,
		FileLevel: "debug",
	}, logger.WithWriter(&console))
	require.NoError(t, err)

	log.Debug("only in file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in file")
	assert.Empty(t, console.String())
}
