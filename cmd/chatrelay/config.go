package main

import (
	"github.com/dmitrymomot/chatrelay/core/logger"
	"github.com/dmitrymomot/chatrelay/core/plugin"
	"github.com/dmitrymomot/chatrelay/core/server"
	"github.com/dmitrymomot/chatrelay/integration/youtube"
)

// Config is the process configuration, read from the environment and an optional .env file.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"chatrelay"`

	Log     logger.Config
	Server  server.Config
	Plugin  plugin.Config
	YouTube youtube.Config

	// Terminal viewer, enabled with CHATVIEW_ENABLED or the -view flag.
	// Console logs are silenced while it runs; LOG_FILE still receives them.
	ViewerEnabled  bool   `env:"CHATVIEW_ENABLED" envDefault:"false"`
	ViewerProvider string `env:"CHATVIEW_PROVIDER"`
	ViewerChannel  string `env:"CHATVIEW_CHANNEL"`
	ViewerHistory  int    `env:"CHATVIEW_HISTORY" envDefault:"500"`
}
