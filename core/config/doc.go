// Package config loads environment variables into typed structs using Go
// generics. Each configuration type is parsed once and cached for later calls.
//
// The first Load reads a .env file from the working directory, if present, and
// parsing is done by caarlos0/env, so struct tags follow its conventions.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/chatrelay/core/config"
//
//	type Config struct {
//		AppName string         `env:"APP_NAME" envDefault:"chatrelay"`
//		Log     logger.Config  // LOG_LEVEL, LOG_FORMAT, LOG_FILE, LOG_FILE_LEVEL
//		Server  server.Config  // HTTP_* and WS_ALLOWED_ORIGINS, WS_PING_INTERVAL
//		Plugin  plugin.Config  // PLUGIN_DEACTIVATE_TIMEOUT
//		YouTube youtube.Config // YOUTUBE_API_KEY, YOUTUBE_CHANNELS, ...
//	}
//
//	func main() {
//		var cfg Config
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// Nested structs are parsed in place, so each package keeps its own Config and
// the command composes them.
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process:
//
//	var first server.Config
//	config.Load(&first) // parses HTTP_ADDR, HTTP_READ_TIMEOUT, ...
//
//	var second server.Config
//	config.Load(&second) // cached copy, environment changes are ignored
//
// Different types are cached independently, so loading plugin.Config does not
// return or refresh the cached server.Config.
//
// Reset drops every cached value. Tests call it before and after changing the
// environment with t.Setenv:
//
//	config.Reset()
//	t.Cleanup(config.Reset)
//	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
//
// # Errors
//
// Load returns ErrNotPointer for a nil pointer or a pointer to a non-struct.
// Parse failures, such as a missing required variable or a malformed duration,
// are wrapped with the name of the struct type.
package config
