package plugin

import "time"

// Config holds plugin host settings loaded from the environment.
type Config struct {
	DeactivateTimeout time.Duration `env:"PLUGIN_DEACTIVATE_TIMEOUT" envDefault:"10s"`
}
