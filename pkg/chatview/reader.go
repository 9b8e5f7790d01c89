package chatview

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
)

// Source is a stream of message batches. *chat.Subscription implements it.
type Source interface {
	Pull(ctx context.Context) []chat.Message
	Unsubscribe()
}

// Formatter turns a message into a display line.
type Formatter func(chat.Message) string

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithFormatter sets how messages are rendered. The default is HTML.
func WithFormatter(f Formatter) ReaderOption {
	return func(r *Reader) {
		if f != nil {
			r.format = f
		}
	}
}

// WithReaderLogger sets the reader's logger.
func WithReaderLogger(log *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// Reader pulls batches from a Source and formats them. Run hands the lines to a
// callback until the source returns an empty batch; Next yields one batch at a time.
type Reader struct {
	src    Source
	handle func(lines []string)
	format Formatter
	log    *slog.Logger
}

// NewReader creates a reader delivering formatted batches to handle.
// handle may be nil when the caller only uses Next.
func NewReader(src Source, handle func(lines []string), opts ...ReaderOption) *Reader {
	r := &Reader{
		src:    src,
		handle: handle,
		format: HTML,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.Source(r.log, "chatview.reader")
	return r
}

// Run blocks until the source ends (unsubscribed, broker closed) or ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	r.log.Debug("started message receiving loop")
	defer r.log.Debug("stopping message receiving loop")

	for {
		lines := r.Next(ctx)
		if lines == nil {
			return nil
		}
		r.handle(lines)
	}
}

// Next pulls one batch and returns it formatted, one line per message.
// It returns nil once the source ends or ctx is done.
func (r *Reader) Next(ctx context.Context) []string {
	batch := r.src.Pull(ctx)
	if len(batch) == 0 {
		return nil
	}

	lines := make([]string, 0, len(batch))
	for _, m := range batch {
		lines = append(lines, r.format(m))
	}
	return lines
}

// Stop unsubscribes the source, which makes Run return.
func (r *Reader) Stop() {
	r.src.Unsubscribe()
}
