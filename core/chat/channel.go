package chat

import (
	"log/slog"
	"sync"

	"github.com/dmitrymomot/chatrelay/core/logger"
)

// ChannelInfo describes a registered channel.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// channelRegistry is the provider side of a channel's deregistration.
type channelRegistry interface {
	deregisterChannel(c *Channel)
}

// Channel is a named message sink scoped to one provider. Producers push messages
// into it; the channel stamps them with its identity and forwards them to the broker.
//
// Channels are created by Provider.RegisterChannel and released with Close.
// If the provider or the broker shuts down first, the channel is abandoned:
// further pushes are logged and dropped.
type Channel struct {
	providerID   string
	providerName string
	id           string
	name         string
	log          *slog.Logger

	mu    sync.Mutex
	state state
	sink  *Queue
	owner channelRegistry
}

func newChannel(providerID, providerName, id, name string, sink *Queue, owner channelRegistry, log *slog.Logger) *Channel {
	return &Channel{
		providerID:   providerID,
		providerName: providerName,
		id:           id,
		name:         name,
		sink:         sink,
		owner:        owner,
		log: logger.Source(log, "chat.channel",
			logger.ProviderID(providerID),
			logger.ChannelID(id)),
	}
}

// ID returns the channel id, unique within its provider.
func (c *Channel) ID() string { return c.id }

// Name returns the human-readable channel name.
func (c *Channel) Name() string { return c.name }

// ProviderID returns the id of the owning provider.
func (c *Channel) ProviderID() string { return c.providerID }

// ProviderName returns the name of the owning provider.
func (c *Channel) ProviderName() string { return c.providerName }

// Info returns the channel's id and name.
func (c *Channel) Info() ChannelInfo {
	return ChannelInfo{ID: c.id, Name: c.name}
}

// Push stamps msg with this channel's identity and forwards it to the broker.
func (c *Channel) Push(msg Message) {
	c.PushBatch([]Message{msg})
}

// PushBatch stamps every message with this channel's identity and forwards the batch
// to the broker in order. The caller's slice and metadata maps are not modified.
func (c *Channel) PushBatch(msgs []Message) {
	if len(msgs) == 0 {
		return
	}

	batch := cloneBatch(msgs)
	for i := range batch {
		batch[i].ProviderID = c.providerID
		batch[i].ProviderName = c.providerName
		batch[i].ChannelID = c.id
		batch[i].ChannelName = c.name
	}

	c.mu.Lock()
	sink, st := c.sink, c.state
	c.mu.Unlock()

	if sink == nil {
		c.log.Error("can't push new messages when detached from parent",
			slog.String("state", st.String()),
			logger.Count("dropped", len(batch)))
		return
	}
	if !sink.Push(batch...) {
		c.log.Warn("broker queue is closed, messages dropped", logger.Count("dropped", len(batch)))
	}
}

// Close releases the channel: it deregisters from its provider, unless the provider
// already abandoned it. Pushing after Close is a logged no-op. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	owner := c.owner
	c.state = stateClosed
	c.sink = nil
	c.owner = nil
	c.mu.Unlock()

	if owner != nil {
		owner.deregisterChannel(c)
	}
}

// Abandoned reports whether the channel was dropped by its provider.
func (c *Channel) Abandoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateAbandoned
}

// abandon is called by the provider during its teardown.
func (c *Channel) abandon() {
	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	c.state = stateAbandoned
	c.sink = nil
	c.owner = nil
	c.mu.Unlock()

	c.log.Warn("abandoned by parent")
}
