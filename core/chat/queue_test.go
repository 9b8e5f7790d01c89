package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/chat"
)

func TestQueue(t *testing.T) {
	t.Parallel()

	t.Run("pull drains everything queued", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		defer q.Close()

		require.True(t, q.Push(chat.Message{Text: "1"}, chat.Message{Text: "2"}))
		require.True(t, q.Push(chat.Message{Text: "3"}))
		assert.Equal(t, 3, q.Len())

		batch := q.Pull(context.Background())
		require.Len(t, batch, 3)
		assert.Equal(t, "1", batch[0].Text)
		assert.Equal(t, "2", batch[1].Text)
		assert.Equal(t, "3", batch[2].Text)
		assert.True(t, q.IsEmpty())
	})

	t.Run("pull instantly on empty queue", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		defer q.Close()

		assert.Empty(t, q.PullInstantly())

		q.Push(chat.Message{Text: "x"})
		batch := q.PullInstantly()
		require.Len(t, batch, 1)
		assert.Equal(t, "x", batch[0].Text)
	})

	t.Run("pull waits for push", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		defer q.Close()

		result := make(chan []chat.Message, 1)
		go func() {
			result <- q.Pull(context.Background())
		}()

		time.Sleep(20 * time.Millisecond)
		q.Push(chat.Message{Text: "late"})

		select {
		case batch := <-result:
			require.Len(t, batch, 1)
			assert.Equal(t, "late", batch[0].Text)
		case <-time.After(time.Second):
			t.Fatal("pull did not return after push")
		}
	})

	t.Run("close wakes blocked reader", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()

		result := make(chan []chat.Message, 1)
		go func() {
			result <- q.Pull(context.Background())
		}()

		time.Sleep(20 * time.Millisecond)
		q.Close()

		select {
		case batch := <-result:
			assert.Empty(t, batch)
		case <-time.After(time.Second):
			t.Fatal("pull did not return after close")
		}
	})

	t.Run("closed queue rejects push", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		q.Push(chat.Message{Text: "dropped"})
		q.Close()
		q.Close()

		assert.True(t, q.Closed())
		assert.False(t, q.Push(chat.Message{Text: "x"}))
		assert.Empty(t, q.Pull(context.Background()))
		assert.Empty(t, q.PullInstantly())
		assert.Equal(t, 0, q.Len())

		select {
		case <-q.Done():
		default:
			t.Fatal("done channel not closed")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		defer q.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Empty(t, q.Pull(ctx))
		assert.False(t, q.Closed())
	})

	t.Run("concurrent producers lose nothing", func(t *testing.T) {
		t.Parallel()

		q := chat.NewQueue()
		defer q.Close()

		const producers, perProducer = 8, 100
		var wg sync.WaitGroup
		for range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perProducer {
					q.Push(chat.Message{})
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, producers*perProducer, q.Len())
	})
}
