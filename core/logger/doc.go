// Package logger provides structured logging utilities built on Go's standard slog package.
//
// # Outputs
//
// A logger writes to a default output (stdout unless WithWriter is used) and to any number
// of extra outputs added with WithOutput. Each output has its own minimum level and format,
// so a console can show INFO and above while a log file keeps DEBUG records:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelInfo),
//		logger.WithOutput(file, slog.LevelDebug, logger.FormatText),
//	)
//
// Write failures on an output are ignored. Logging is never allowed to fail the caller.
//
// # Levels
//
// The standard slog levels are used for DEBUG, INFO, WARNING and ERROR. LevelCritical sits
// above ERROR and is rendered as "CRITICAL":
//
//	log.Log(ctx, logger.LevelCritical, "dispatcher stopped unexpectedly")
//
// # Named sources
//
// Components log through a named source, a child logger carrying a "component" attribute
// and whatever identity attributes the component has:
//
//	log := logger.Source(base, "chat.channel", logger.ProviderID("twitch"), logger.ChannelID("mychan"))
//	log.Warn("abandoned by parent")
//
// # Attribute helpers
//
// Helpers return an empty slog.Attr for nil or empty input, so they can be passed
// unconditionally:
//
//	log.Error("push failed", logger.Error(err), logger.Pattern("", "mychan"))
//
// Empty provider and channel ids are wildcards and are rendered as "(any)".
//
// # Configuration
//
// Config maps LOG_LEVEL, LOG_FORMAT, LOG_FILE and LOG_FILE_LEVEL. NewFromConfig opens the
// log file (creating its directory) and returns a closer for it.
package logger
