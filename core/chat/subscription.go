package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// subscriptionRegistry is the broker side of a subscription's deregistration.
type subscriptionRegistry interface {
	deregisterSubscription(s *Subscription)
}

// Subscription is a consumer's standing request for messages matching a
// (provider id, channel id) pattern. An empty id matches any provider or channel.
//
// Messages are buffered in a private queue until the consumer pulls them.
// Unsubscribe stops delivery and wakes a reader blocked in Pull.
type Subscription struct {
	id         string
	providerID string
	channelID  string
	queue      *Queue
	log        *slog.Logger

	mu    sync.Mutex
	state state
	owner subscriptionRegistry
}

func newSubscription(providerID, channelID string, queue *Queue, owner subscriptionRegistry, log *slog.Logger) *Subscription {
	id := uuid.NewString()
	return &Subscription{
		id:         id,
		providerID: providerID,
		channelID:  channelID,
		queue:      queue,
		owner:      owner,
		log: logger.Source(log, "chat.subscription",
			logger.Pattern(providerID, channelID),
			logger.SubscriptionID(id)),
	}
}

// ID returns a unique identifier of this subscription.
func (s *Subscription) ID() string { return s.id }

// ProviderID returns the provider half of the pattern; empty means any provider.
func (s *Subscription) ProviderID() string { return s.providerID }

// ChannelID returns the channel half of the pattern; empty means any channel.
func (s *Subscription) ChannelID() string { return s.channelID }

// Pull blocks until messages arrive and returns all of them in delivery order.
// It returns an empty batch once the subscription is unsubscribed or abandoned,
// including when that happens while Pull is blocked, and when ctx is done.
func (s *Subscription) Pull(ctx context.Context) []Message {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return nil
	}
	q := s.queue
	s.mu.Unlock()

	return q.Pull(ctx)
}

// PullInstantly returns whatever is queued without waiting.
func (s *Subscription) PullInstantly() []Message {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return nil
	}
	q := s.queue
	s.mu.Unlock()

	return q.PullInstantly()
}

// Subscribed reports whether the subscription still receives messages.
func (s *Subscription) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

// Unsubscribe stops delivery, removes the subscription from the broker and releases
// its queue. A reader blocked in Pull returns an empty batch. Safe to call repeatedly
// and from any goroutine.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	owner := s.owner
	s.state = stateClosed
	s.owner = nil
	s.mu.Unlock()

	if owner != nil {
		owner.deregisterSubscription(s)
	}
	s.queue.Close()
}

// Close is an alias for Unsubscribe.
func (s *Subscription) Close() {
	s.Unsubscribe()
}

// abandon is called by the broker during its teardown.
func (s *Subscription) abandon() {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	s.state = stateAbandoned
	s.owner = nil
	s.mu.Unlock()

	s.queue.Close()
	s.log.Warn("abandoned by parent")
}
