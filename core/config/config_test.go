package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/config"
	"github.com/dmitrymomot/chatrelay/core/logger"
	"github.com/dmitrymomot/chatrelay/core/plugin"
	"github.com/dmitrymomot/chatrelay/core/server"
	"github.com/dmitrymomot/chatrelay/integration/youtube"
)

type relayConfig struct {
	Addr     string        `env:"TEST_RELAY_ADDR" envDefault:":8080"`
	Channels []string      `env:"TEST_RELAY_CHANNELS" envSeparator:","`
	Timeout  time.Duration `env:"TEST_RELAY_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Key string `env:"TEST_RELAY_REQUIRED_KEY,required"`
}

func TestLoad_ParsesAndCaches(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("TEST_RELAY_CHANNELS", "UC1,UC2")

	var cfg relayConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"UC1", "UC2"}, cfg.Channels)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	// Cached: environment changes are not observed until Reset.
	t.Setenv("TEST_RELAY_ADDR", ":9090")
	var again relayConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, ":8080", again.Addr)

	config.Reset()
	var fresh relayConfig
	require.NoError(t, config.Load(&fresh))
	assert.Equal(t, ":9090", fresh.Addr)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_RELAY_REQUIRED_KEY")

	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
}

func TestLoad_NilTarget(t *testing.T) {
	var cfg *relayConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNotPointer)

	var s string
	assert.ErrorIs(t, config.Load(&s), config.ErrNotPointer)
}

func TestLoad_RelayConfigs(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PLUGIN_DEACTIVATE_TIMEOUT", "3s")
	t.Setenv("YOUTUBE_CHANNELS", "UC1,UC2")

	var cfg struct {
		Log     logger.Config
		Server  server.Config
		Plugin  plugin.Config
		YouTube youtube.Config
	}
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Plugin.DeactivateTimeout)
	assert.Equal(t, []string{"UC1", "UC2"}, cfg.YouTube.Channels)
	assert.Equal(t, 30*time.Second, cfg.YouTube.DiscoveryInterval)
}

func TestLoad_MalformedValue(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("TEST_RELAY_TIMEOUT", "soon")

	var cfg relayConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relayConfig")
}
