package chat

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of messages with a batching, blocking Pull.
//
// Pull drains everything queued at the moment it wakes up, so consumers handle messages
// in batches. Close is the shutdown signal: it wakes every blocked Pull, after which Pull
// and PullInstantly return nil and Push is a no-op. Closing from one goroutine while
// another is blocked in Pull is safe; the reader returns an empty batch.
type Queue struct {
	mu     sync.Mutex
	items  []Message
	closed bool

	signal    chan struct{} // capacity 1; wakes a waiting Pull after a Push
	done      chan struct{} // closed by Close
	closeOnce sync.Once
}

// NewQueue creates an empty, open queue.
func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends messages and wakes a waiting reader.
// It reports false, dropping the messages, if the queue is closed.
func (q *Queue) Push(msgs ...Message) bool {
	if len(msgs) == 0 {
		return true
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, msgs...)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Pull blocks until the queue is non-empty, closed, or ctx is done, then returns
// everything queued. It returns nil once the queue is closed or ctx is done.
func (q *Queue) Pull(ctx context.Context) []Message {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil
		}
		if len(q.items) > 0 {
			batch := q.items
			q.items = nil
			q.mu.Unlock()
			return batch
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-q.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// PullInstantly drains the queue without waiting. It may return nil.
func (q *Queue) PullInstantly() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) == 0 {
		return nil
	}
	batch := q.items
	q.items = nil
	return batch
}

// Len reports how many messages are queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether nothing is queued.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Close shuts the queue down, discarding queued messages and waking all readers.
// It is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.items = nil
		q.mu.Unlock()
		close(q.done)
	})
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Done returns a channel that is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
