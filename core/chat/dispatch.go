package chat

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// routeKey is one bucket of the routing table.
type routeKey struct {
	providerID string
	channelID  string
}

// dispatchLoop drains the incoming queue until it is closed.
func (b *Broker) dispatchLoop() {
	defer close(b.done)

	for {
		batch := b.incoming.Pull(context.Background())
		if len(batch) == 0 {
			b.log.Debug("incoming queue closed, dispatcher exiting")
			return
		}
		b.dispatch(batch)
	}
}

// dispatch fans a batch out to every matching subscription. Panics are logged and
// absorbed so one bad batch never stops the dispatcher.
func (b *Broker) dispatch(batch []Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("dispatch panicked", logger.Panic(r), logger.Count("batch", len(batch)))
		}
	}()

	b.batches.Add(1)
	b.messagesReceived.Add(int64(len(batch)))
	b.lastActivityAt.Store(time.Now().UnixMilli())

	deliveries, order, unrouted := b.route(batch)
	if unrouted > 0 {
		b.messagesUnrouted.Add(int64(unrouted))
	}

	var delivered int64
	for _, q := range order {
		msgs := deliveries[q]
		if q.Push(msgs...) {
			delivered += int64(len(msgs))
		}
	}
	b.messagesDelivered.Add(delivered)
}

// route resolves targets for the batch under the read lock and returns per-queue
// deliveries in batch order. Each target gets its own copy of every message.
func (b *Broker) route(batch []Message) (map[*Queue][]Message, []*Queue, int) {
	deliveries := make(map[*Queue][]Message)
	var order []*Queue
	unrouted := 0

	b.routesMu.RLock()
	defer b.routesMu.RUnlock()

	for _, msg := range batch {
		matched := false
		for _, key := range matchingKeys(msg.ProviderID, msg.ChannelID) {
			for _, q := range b.routes[key.providerID][key.channelID] {
				if _, seen := deliveries[q]; !seen {
					order = append(order, q)
				}
				deliveries[q] = append(deliveries[q], msg.Clone())
				matched = true
			}
		}
		if !matched {
			unrouted++
		}
	}
	return deliveries, order, unrouted
}

// matchingKeys lists the distinct buckets a message addressed to (providerID,
// channelID) is delivered through: exact, any channel, any provider and any/any.
func matchingKeys(providerID, channelID string) []routeKey {
	candidates := [4]routeKey{
		{providerID, channelID},
		{providerID, ""},
		{"", channelID},
		{"", ""},
	}
	keys := make([]routeKey, 0, len(candidates))
	for _, k := range candidates {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}
