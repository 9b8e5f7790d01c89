package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelCritical is the most severe level. slog has no built-in level above Error.
const LevelCritical = slog.Level(12)

// Format selects how records are written to an output.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

type output struct {
	w      io.Writer
	level  slog.Leveler
	format Format
}

type options struct {
	outputs     []output
	level       slog.Leveler
	format      Format
	attrs       []slog.Attr
	addSource   bool
	defaultSink io.Writer
}

// Option configures a logger created with New.
type Option func(*options)

// WithLevel sets the minimum level for the default output.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		if level != nil {
			o.level = level
		}
	}
}

// WithJSONFormatter switches the default output to JSON.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.format = FormatJSON
	}
}

// WithTextFormatter switches the default output to text.
func WithTextFormatter() Option {
	return func(o *options) {
		o.format = FormatText
	}
}

// WithWriter replaces the default output writer (stdout).
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.defaultSink = w
		}
	}
}

// WithOutput adds an extra output with its own minimum level and format.
// Every record is written to each output whose level it satisfies.
//
// Example:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelInfo),
//		logger.WithOutput(logFile, slog.LevelDebug, logger.FormatText),
//	)
func WithOutput(w io.Writer, level slog.Leveler, format Format) Option {
	return func(o *options) {
		if w == nil {
			return
		}
		if level == nil {
			level = slog.LevelInfo
		}
		o.outputs = append(o.outputs, output{w: w, level: level, format: format})
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithSource adds the caller's file and line to every record.
func WithSource() Option {
	return func(o *options) {
		o.addSource = true
	}
}

// WithDevelopment configures a debug-level text logger tagged with the service name.
func WithDevelopment(service string) Option {
	return func(o *options) {
		o.level = slog.LevelDebug
		o.format = FormatText
		o.attrs = append(o.attrs, slog.String("service", service), slog.String("env", "development"))
	}
}

// WithProduction configures an info-level JSON logger tagged with the service name.
func WithProduction(service string) Option {
	return func(o *options) {
		o.level = slog.LevelInfo
		o.format = FormatJSON
		o.attrs = append(o.attrs, slog.String("service", service), slog.String("env", "production"))
	}
}

// New creates a structured logger.
// Without options it writes info-level text records to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:       slog.LevelInfo,
		format:      FormatText,
		defaultSink: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	outputs := append([]output{{w: o.defaultSink, level: o.level, format: o.format}}, o.outputs...)
	handlers := make([]slog.Handler, 0, len(outputs))
	for _, out := range outputs {
		handlers = append(handlers, newHandler(out, o.addSource))
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = &fanoutHandler{handlers: handlers}
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	return slog.New(h)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Source returns a named-source child logger.
func Source(log *slog.Logger, name string, attrs ...any) *slog.Logger {
	if log == nil {
		log = NewNop()
	}
	return log.With(append([]any{Component(name)}, attrs...)...)
}

// ParseLevel converts a level name (debug, info, warn, warning, error, critical)
// into a slog level. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts "json" or "text" into a Format. Anything else is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

func newHandler(out output, addSource bool) slog.Handler {
	ho := &slog.HandlerOptions{
		Level:       out.level,
		AddSource:   addSource,
		ReplaceAttr: replaceLevel,
	}
	w := &safeWriter{w: out.w}
	if out.format == FormatJSON {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// replaceLevel renders the custom critical level and the "WARN" level under the names
// used across the rest of the tooling.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch {
	case level >= LevelCritical:
		a.Value = slog.StringValue("CRITICAL")
	case level == slog.LevelWarn:
		a.Value = slog.StringValue("WARNING")
	}
	return a
}

// safeWriter never reports a write failure to the handler, so a broken log file
// cannot turn a log call into an error path.
type safeWriter struct {
	w io.Writer
}

func (s *safeWriter) Write(p []byte) (int, error) {
	_, _ = s.w.Write(p)
	return len(p), nil
}

// fanoutHandler writes each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: hs}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: hs}
}
