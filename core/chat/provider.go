package chat

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// ProviderInfo is a snapshot of a provider and its channels.
type ProviderInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ChannelCount int           `json:"channel_count"`
	Channels     []ChannelInfo `json:"channels"`
}

// providerRegistry is the broker side of a provider's deregistration.
type providerRegistry interface {
	deregisterProvider(p *Provider)
}

// Provider is a named message source, typically one streaming platform account,
// owning a dynamic set of channels.
//
// Providers are created by Broker.RegisterProvider and released with Close. Closing a
// provider abandons every channel still registered on it.
type Provider struct {
	id   string
	name string
	log  *slog.Logger

	mu       sync.Mutex
	state    state
	sink     *Queue
	owner    providerRegistry
	channels map[string]*Channel
}

func newProvider(id, name string, sink *Queue, owner providerRegistry, log *slog.Logger) *Provider {
	return &Provider{
		id:       id,
		name:     name,
		sink:     sink,
		owner:    owner,
		channels: make(map[string]*Channel),
		log:      logger.Source(log, "chat.provider", logger.ProviderID(id)),
	}
}

// ID returns the provider id.
func (p *Provider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *Provider) Name() string { return p.name }

// RegisterChannel creates a channel owned by this provider.
//
// It fails with ErrProviderAbandoned or ErrProviderClosed when the provider is no longer
// active, with ErrEmptyChannelID (an ErrInvalidArgument) for a blank id and with
// ErrChannelExists (an ErrAlreadyExists) when the id is taken.
func (p *Provider) RegisterChannel(id, name string) (*Channel, error) {
	p.log.Debug("registering new channel", logger.ChannelID(id))

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateAbandoned:
		p.log.Error("channel registration failed", logger.Error(ErrProviderAbandoned))
		return nil, ErrProviderAbandoned
	case stateClosed:
		p.log.Error("channel registration failed", logger.Error(ErrProviderClosed))
		return nil, ErrProviderClosed
	}

	if id == "" {
		p.log.Error("channel registration failed", logger.Error(ErrEmptyChannelID))
		return nil, ErrEmptyChannelID
	}
	if _, ok := p.channels[id]; ok {
		p.log.Error("channel registration failed", logger.ChannelID(id), logger.Error(ErrChannelExists))
		return nil, ErrChannelExists
	}

	c := newChannel(p.id, p.name, id, name, p.sink, p, p.log)
	p.channels[id] = c
	return c, nil
}

// deregisterChannel removes a channel that closed itself.
func (p *Provider) deregisterChannel(c *Channel) {
	p.log.Debug("deregistering channel", logger.ChannelID(c.ID()))

	p.mu.Lock()
	active := p.state == stateActive
	existing, ok := p.channels[c.ID()]
	if ok && existing == c {
		delete(p.channels, c.ID())
	}
	p.mu.Unlock()

	if active && (!ok || existing != c) {
		p.log.Warn("deregistering a channel that wasn't registered", logger.ChannelID(c.ID()))
	}
}

// Info returns the provider's id, name and channels ordered by id.
func (p *Provider) Info() ProviderInfo {
	p.mu.Lock()
	channels := make([]ChannelInfo, 0, len(p.channels))
	for _, c := range p.channels {
		channels = append(channels, c.Info())
	}
	p.mu.Unlock()

	slices.SortFunc(channels, func(a, b ChannelInfo) int { return cmp.Compare(a.ID, b.ID) })

	return ProviderInfo{
		ID:           p.id,
		Name:         p.name,
		ChannelCount: len(channels),
		Channels:     channels,
	}
}

// Close deregisters the provider from the broker and abandons its remaining channels.
// If the broker already abandoned the provider, Close only marks it closed.
// Close is idempotent.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.state != stateActive {
		p.mu.Unlock()
		return
	}
	owner := p.owner
	channels := p.detachLocked(stateClosed)
	p.mu.Unlock()

	if owner != nil {
		owner.deregisterProvider(p)
	}
	for _, c := range channels {
		c.abandon()
	}
}

// Abandoned reports whether the provider was dropped by its broker.
func (p *Provider) Abandoned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateAbandoned
}

// abandon is called by the broker during its teardown.
func (p *Provider) abandon() {
	p.mu.Lock()
	if p.state != stateActive {
		p.mu.Unlock()
		return
	}
	channels := p.detachLocked(stateAbandoned)
	p.mu.Unlock()

	p.log.Warn("abandoned by parent", logger.Count("channels", len(channels)))
	for _, c := range channels {
		c.abandon()
	}
}

// detachLocked moves the provider into a terminal state and hands back the channels
// that must be abandoned once the lock is released.
func (p *Provider) detachLocked(to state) []*Channel {
	p.state = to
	p.sink = nil
	p.owner = nil

	channels := make([]*Channel, 0, len(p.channels))
	for _, c := range p.channels {
		channels = append(channels, c)
	}
	clear(p.channels)
	return channels
}
