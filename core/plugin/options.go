package plugin

import (
	"log/slog"
	"time"
)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger for the host and for every loaded plugin.
func WithLogger(log *slog.Logger) Option {
	return func(h *Host) {
		if log != nil {
			h.baseLog = log
		}
	}
}

// WithDeactivateTimeout bounds how long Unload waits for a plugin's Deactivate.
func WithDeactivateTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.deactivateTimeout = d
		}
	}
}

// WithConfig applies every setting from cfg.
func WithConfig(cfg Config) Option {
	return WithDeactivateTimeout(cfg.DeactivateTimeout)
}
