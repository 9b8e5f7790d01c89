package chat

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// Info is a live snapshot of every registered provider and channel.
type Info struct {
	ProviderCount int            `json:"provider_count"`
	ChannelCount  int            `json:"channel_count"`
	Providers     []ProviderInfo `json:"providers"`
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	Providers         int
	Channels          int
	Subscriptions     int
	MessagesReceived  int64
	MessagesDelivered int64
	MessagesUnrouted  int64
	Batches           int64
	IsRunning         bool
	LastActivityAt    time.Time
}

// routeTable maps provider id -> channel id -> subscription -> its queue.
// An empty id at either level means "any".
type routeTable map[string]map[string]map[*Subscription]*Queue

// Broker is the central registry tying providers and channels to subscriptions.
//
// Every channel forwards into one shared incoming queue. A single dispatcher goroutine,
// started by New and stopped by Close, drains that queue and fans each message out to
// the subscriptions registered for (provider, channel), (provider, any), (any, channel)
// and (any, any).
type Broker struct {
	baseLog  *slog.Logger
	log      *slog.Logger
	incoming *Queue
	done     chan struct{}
	closed   atomic.Bool

	providersMu sync.Mutex
	providers   map[string]*Provider

	routesMu      sync.RWMutex
	routes        routeTable
	subscriptions atomic.Int64 // matches the entries in routes; written under routesMu

	messagesReceived  atomic.Int64
	messagesDelivered atomic.Int64
	messagesUnrouted  atomic.Int64
	batches           atomic.Int64
	lastActivityAt    atomic.Int64
}

// New creates a broker and starts its dispatcher.
// The broker must be released with Close.
//
// Example:
//
//	broker := chat.New(chat.WithLogger(log))
//	defer broker.Close()
//
//	twitch, _ := broker.RegisterProvider("twitch", "Twitch")
//	channel, _ := twitch.RegisterChannel("mychan", "My Channel")
//	sub, _ := broker.Subscribe("twitch", "")
//
//	channel.Push(chat.Message{UserName: "alice", Text: "hi"})
//	batch := sub.Pull(ctx)
func New(opts ...Option) *Broker {
	b := &Broker{
		baseLog:   logger.NewNop(),
		incoming:  NewQueue(),
		done:      make(chan struct{}),
		providers: make(map[string]*Provider),
		routes:    make(routeTable),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logger.Source(b.baseLog, "chat.broker")

	go b.dispatchLoop()

	b.log.Debug("chat broker started")
	return b
}

// RegisterProvider creates a provider bound to this broker.
//
// It fails with ErrEmptyProviderID (an ErrInvalidArgument) for a blank id,
// ErrProviderExists (an ErrAlreadyExists) when the id is taken and ErrBrokerClosed
// after Close.
func (b *Broker) RegisterProvider(id, name string) (*Provider, error) {
	b.log.Debug("registering new provider", logger.ProviderID(id))

	b.providersMu.Lock()
	defer b.providersMu.Unlock()

	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}
	if id == "" {
		b.log.Error("provider registration failed", logger.Error(ErrEmptyProviderID))
		return nil, ErrEmptyProviderID
	}
	if _, ok := b.providers[id]; ok {
		b.log.Error("provider registration failed", logger.ProviderID(id), logger.Error(ErrProviderExists))
		return nil, ErrProviderExists
	}

	p := newProvider(id, name, b.incoming, b, b.baseLog)
	b.providers[id] = p
	return p, nil
}

// deregisterProvider removes a provider that closed itself.
func (b *Broker) deregisterProvider(p *Provider) {
	b.log.Debug("deregistering provider", logger.ProviderID(p.ID()))

	b.providersMu.Lock()
	existing, ok := b.providers[p.ID()]
	if ok && existing == p {
		delete(b.providers, p.ID())
	}
	b.providersMu.Unlock()

	if !ok || existing != p {
		b.log.Warn("deregistering a provider that wasn't registered", logger.ProviderID(p.ID()))
	}
}

// Subscribe registers interest in messages matching (providerID, channelID).
// An empty id matches any provider or any channel. It fails only with ErrBrokerClosed.
func (b *Broker) Subscribe(providerID, channelID string) (*Subscription, error) {
	b.log.Debug("subscribing", logger.Pattern(providerID, channelID))

	// Everything is built before the table is touched, so a failed subscribe
	// never leaves a partial branch behind.
	q := NewQueue()
	sub := newSubscription(providerID, channelID, q, b, b.baseLog)

	b.routesMu.Lock()
	if b.closed.Load() {
		b.routesMu.Unlock()
		q.Close()
		return nil, ErrBrokerClosed
	}
	channels, ok := b.routes[providerID]
	if !ok {
		channels = make(map[string]map[*Subscription]*Queue)
		b.routes[providerID] = channels
	}
	subs, ok := channels[channelID]
	if !ok {
		subs = make(map[*Subscription]*Queue)
		channels[channelID] = subs
	}
	subs[sub] = q
	b.subscriptions.Add(1)
	b.routesMu.Unlock()

	return sub, nil
}

// deregisterSubscription removes a subscription, releases its queue and prunes
// routing branches left empty.
func (b *Broker) deregisterSubscription(s *Subscription) {
	pattern := logger.Pattern(s.ProviderID(), s.ChannelID())
	b.log.Debug("unsubscribing", pattern, logger.SubscriptionID(s.ID()))

	b.routesMu.Lock()
	q, found := b.removeRouteLocked(s)
	if found {
		b.subscriptions.Add(-1)
	}
	b.routesMu.Unlock()

	if !found {
		b.log.Warn("deregistering subscription that isn't registered", pattern, logger.SubscriptionID(s.ID()))
		return
	}
	q.Close()
}

func (b *Broker) removeRouteLocked(s *Subscription) (*Queue, bool) {
	channels, ok := b.routes[s.ProviderID()]
	if !ok {
		return nil, false
	}
	subs, ok := channels[s.ChannelID()]
	if !ok {
		return nil, false
	}
	q, ok := subs[s]
	if !ok {
		return nil, false
	}

	delete(subs, s)
	if len(subs) == 0 {
		delete(channels, s.ChannelID())
	}
	if len(channels) == 0 {
		delete(b.routes, s.ProviderID())
	}
	return q, true
}

// ChannelInfo walks the live registry and returns every provider and channel,
// ordered by id.
func (b *Broker) ChannelInfo() Info {
	b.providersMu.Lock()
	providers := make([]*Provider, 0, len(b.providers))
	for _, p := range b.providers {
		providers = append(providers, p)
	}
	b.providersMu.Unlock()

	info := Info{
		ProviderCount: len(providers),
		Providers:     make([]ProviderInfo, 0, len(providers)),
	}
	for _, p := range providers {
		pi := p.Info()
		info.ChannelCount += pi.ChannelCount
		info.Providers = append(info.Providers, pi)
	}
	slices.SortFunc(info.Providers, func(a, c ProviderInfo) int { return cmp.Compare(a.ID, c.ID) })
	return info
}

// Stats returns current broker statistics.
func (b *Broker) Stats() Stats {
	info := b.ChannelInfo()

	var last time.Time
	if ts := b.lastActivityAt.Load(); ts > 0 {
		last = time.UnixMilli(ts)
	}

	return Stats{
		Providers:         info.ProviderCount,
		Channels:          info.ChannelCount,
		Subscriptions:     int(b.subscriptions.Load()),
		MessagesReceived:  b.messagesReceived.Load(),
		MessagesDelivered: b.messagesDelivered.Load(),
		MessagesUnrouted:  b.messagesUnrouted.Load(),
		Batches:           b.batches.Load(),
		IsRunning:         !b.closed.Load(),
		LastActivityAt:    last,
	}
}

// Healthcheck reports whether the dispatcher is running.
func (b *Broker) Healthcheck(ctx context.Context) error {
	if b.closed.Load() {
		return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrBrokerClosed)
	}
	select {
	case <-b.done:
		return fmt.Errorf("%w: dispatcher exited", ErrHealthcheckFailed)
	default:
		return nil
	}
}

// Close stops the dispatcher and waits for it to exit, then abandons every provider
// (and through them every channel) and every subscription. Readers blocked in
// Subscription.Pull return an empty batch. Messages still queued are dropped.
// Close is idempotent.
func (b *Broker) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		<-b.done
		return nil
	}

	b.incoming.Close()
	<-b.done

	b.providersMu.Lock()
	providers := make([]*Provider, 0, len(b.providers))
	for _, p := range b.providers {
		providers = append(providers, p)
	}
	clear(b.providers)
	b.providersMu.Unlock()

	for _, p := range providers {
		p.abandon()
	}

	b.routesMu.Lock()
	var subs []*Subscription
	for _, channels := range b.routes {
		for _, set := range channels {
			for s := range set {
				subs = append(subs, s)
			}
		}
	}
	clear(b.routes)
	b.subscriptions.Store(0)
	b.routesMu.Unlock()

	for _, s := range subs {
		s.abandon()
	}

	b.log.Info("chat broker stopped",
		logger.Count("abandoned_providers", len(providers)),
		logger.Count("abandoned_subscriptions", len(subs)))
	return nil
}

// Run provides errgroup compatibility: the returned function blocks until ctx is
// cancelled and then closes the broker.
func (b *Broker) Run(ctx context.Context) func() error {
	return func() error {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		return b.Close()
	}
}
