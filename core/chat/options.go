package chat

import "log/slog"

// Option configures a Broker.
type Option func(*Broker)

// WithLogger configures structured logging for the broker and everything it creates.
// Use logger.NewNop() (the default) to disable logging.
func WithLogger(log *slog.Logger) Option {
	return func(b *Broker) {
		if log != nil {
			b.baseLog = log
		}
	}
}
