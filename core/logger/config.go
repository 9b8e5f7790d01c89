package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config describes the process-wide logging setup: a console output plus an
// optional log file with its own level.
type Config struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	File      string `env:"LOG_FILE"`
	FileLevel string `env:"LOG_FILE_LEVEL" envDefault:"info"`
}

// NewFromConfig builds a logger from cfg. The returned closer releases the log file,
// if one was opened; it is never nil.
func NewFromConfig(cfg Config, opts ...Option) (*slog.Logger, io.Closer, error) {
	base := []Option{
		WithLevel(ParseLevel(cfg.Level)),
	}
	if ParseFormat(cfg.Format) == FormatJSON {
		base = append(base, WithJSONFormatter())
	}

	closer := io.Closer(nopCloser{})
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, closer, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		closer = f
		base = append(base, WithOutput(f, ParseLevel(cfg.FileLevel), FormatText))
	}

	return New(append(base, opts...)...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
