package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
)

// API is the handle-based view of the broker given to one plugin instance.
//
// Nothing here returns an error or panics: invalid handles and broker failures are
// logged at ERROR level and produce a zero result (a null handle, an empty string,
// an empty batch). After the plugin is unloaded every call is rejected the same way.
type API struct {
	host   *Host
	name   string
	log    *slog.Logger // interface-side diagnostics
	plog   *slog.Logger // plugin's own log source
	closed atomic.Bool
}

func newAPI(h *Host, name string) *API {
	return &API{
		host: h,
		name: name,
		log:  logger.Source(h.baseLog, "plugin.api", logger.Plugin(name)),
		plog: logger.Source(h.baseLog, "plugin."+name),
	}
}

func (a *API) close() { a.closed.Store(true) }

// Name returns the name of the plugin this API is bound to.
func (a *API) Name() string { return a.name }

// Logger returns the plugin's named log source.
func (a *API) Logger() *slog.Logger { return a.plog }

// Log writes a message to the plugin's log source. parts are concatenated like fmt.Sprint.
func (a *API) Log(level slog.Level, parts ...any) {
	a.plog.Log(context.Background(), level, fmt.Sprint(parts...))
}

func (a *API) active(op string) bool {
	if a.closed.Load() {
		a.log.Error(op + ": plugin instance is unloaded")
		return false
	}
	return true
}

// ============================================================================
// Broker
// ============================================================================

// ChannelInfo lists every provider and channel registered on the broker.
func (a *API) ChannelInfo() chat.Info {
	return a.host.broker.ChannelInfo()
}

// RegisterProvider registers a provider owned by this plugin.
// It returns the null handle if the broker refuses the registration.
func (a *API) RegisterProvider(id, name string) ProviderHandle {
	if !a.active("RegisterProvider") {
		return ProviderHandle{}
	}
	p, err := a.host.broker.RegisterProvider(id, name)
	if err != nil {
		a.log.Error("could not register chat provider", logger.ProviderID(id), logger.Error(err))
		return ProviderHandle{}
	}
	return ProviderHandle{id: a.host.providers.add(a, p)}
}

// Subscribe subscribes to (providerID, channelID); an empty id is a wildcard.
// It returns the null handle on failure.
func (a *API) Subscribe(providerID, channelID string) SubscriptionHandle {
	if !a.active("Subscribe") {
		return SubscriptionHandle{}
	}
	s, err := a.host.broker.Subscribe(providerID, channelID)
	if err != nil {
		a.log.Error("could not subscribe to chat", logger.Pattern(providerID, channelID), logger.Error(err))
		return SubscriptionHandle{}
	}
	return SubscriptionHandle{id: a.host.subscriptions.add(a, s)}
}

// ============================================================================
// Providers
// ============================================================================

func (a *API) provider(op string, h ProviderHandle) (*chat.Provider, bool) {
	if h.IsZero() {
		a.log.Error(op + ": provider handle is null")
		return nil, false
	}
	e, ok := a.host.providers.get(h.id)
	if !ok {
		a.log.Error(op+": unknown provider handle", slog.String("handle", h.String()))
		return nil, false
	}
	return e.value, true
}

// ProviderID returns the provider's id.
func (a *API) ProviderID(h ProviderHandle) string {
	if p, ok := a.provider("ProviderID", h); ok {
		return p.ID()
	}
	return ""
}

// ProviderName returns the provider's name.
func (a *API) ProviderName(h ProviderHandle) string {
	if p, ok := a.provider("ProviderName", h); ok {
		return p.Name()
	}
	return ""
}

// Provider returns the provider's id, name and channels.
func (a *API) Provider(h ProviderHandle) chat.ProviderInfo {
	if p, ok := a.provider("Provider", h); ok {
		return p.Info()
	}
	return chat.ProviderInfo{}
}

// RegisterChannel registers a channel on the provider. The channel is owned by this plugin.
func (a *API) RegisterChannel(h ProviderHandle, id, name string) ChannelHandle {
	if !a.active("RegisterChannel") {
		return ChannelHandle{}
	}
	p, ok := a.provider("RegisterChannel", h)
	if !ok {
		return ChannelHandle{}
	}
	c, err := p.RegisterChannel(id, name)
	if err != nil {
		a.log.Error("could not register chat channel",
			logger.ProviderID(p.ID()),
			logger.ChannelID(id),
			logger.Error(err))
		return ChannelHandle{}
	}
	return ChannelHandle{id: a.host.channels.add(a, c)}
}

// DeleteProvider closes a provider created by this plugin and zeroes *h.
// Handles owned by another plugin are left alone.
func (a *API) DeleteProvider(h *ProviderHandle) {
	if h == nil || h.IsZero() {
		a.log.Error("DeleteProvider: provider handle is null")
		return
	}
	defer func() { *h = ProviderHandle{} }()

	p, found, owned := a.host.providers.take(h.id, a)
	switch {
	case !found:
		a.log.Error("DeleteProvider: unknown provider handle", slog.String("handle", h.String()))
	case !owned:
		a.log.Error("DeleteProvider: provider handle not owned by this plugin", slog.String("handle", h.String()))
	default:
		p.Close()
	}
}

// ============================================================================
// Channels
// ============================================================================

func (a *API) channel(op string, h ChannelHandle) (*chat.Channel, bool) {
	if h.IsZero() {
		a.log.Error(op + ": channel handle is null")
		return nil, false
	}
	e, ok := a.host.channels.get(h.id)
	if !ok {
		a.log.Error(op+": unknown channel handle", slog.String("handle", h.String()))
		return nil, false
	}
	return e.value, true
}

// ChannelID returns the channel's id.
func (a *API) ChannelID(h ChannelHandle) string {
	if c, ok := a.channel("ChannelID", h); ok {
		return c.ID()
	}
	return ""
}

// ChannelName returns the channel's name.
func (a *API) ChannelName(h ChannelHandle) string {
	if c, ok := a.channel("ChannelName", h); ok {
		return c.Name()
	}
	return ""
}

// ChannelProviderID returns the id of the channel's provider.
func (a *API) ChannelProviderID(h ChannelHandle) string {
	if c, ok := a.channel("ChannelProviderID", h); ok {
		return c.ProviderID()
	}
	return ""
}

// ChannelProviderName returns the name of the channel's provider.
func (a *API) ChannelProviderName(h ChannelHandle) string {
	if c, ok := a.channel("ChannelProviderName", h); ok {
		return c.ProviderName()
	}
	return ""
}

// Channel returns the channel's id and name.
func (a *API) Channel(h ChannelHandle) chat.ChannelInfo {
	if c, ok := a.channel("Channel", h); ok {
		return c.Info()
	}
	return chat.ChannelInfo{}
}

// PushOne pushes a message into the channel.
func (a *API) PushOne(h ChannelHandle, msg chat.Message) {
	if c, ok := a.channel("PushOne", h); ok {
		c.Push(msg)
	}
}

// PushMany pushes a batch into the channel, preserving order.
func (a *API) PushMany(h ChannelHandle, msgs []chat.Message) {
	if c, ok := a.channel("PushMany", h); ok {
		c.PushBatch(msgs)
	}
}

// DeleteChannel closes a channel created by this plugin and zeroes *h.
func (a *API) DeleteChannel(h *ChannelHandle) {
	if h == nil || h.IsZero() {
		a.log.Error("DeleteChannel: channel handle is null")
		return
	}
	defer func() { *h = ChannelHandle{} }()

	c, found, owned := a.host.channels.take(h.id, a)
	switch {
	case !found:
		a.log.Error("DeleteChannel: unknown channel handle", slog.String("handle", h.String()))
	case !owned:
		a.log.Error("DeleteChannel: channel handle not owned by this plugin", slog.String("handle", h.String()))
	default:
		c.Close()
	}
}

// ============================================================================
// Subscriptions
// ============================================================================

func (a *API) subscription(op string, h SubscriptionHandle) (*chat.Subscription, bool) {
	if h.IsZero() {
		a.log.Error(op + ": subscription handle is null")
		return nil, false
	}
	e, ok := a.host.subscriptions.get(h.id)
	if !ok {
		a.log.Error(op+": unknown subscription handle", slog.String("handle", h.String()))
		return nil, false
	}
	return e.value, true
}

// SubscriptionProviderID returns the provider half of the subscription pattern.
func (a *API) SubscriptionProviderID(h SubscriptionHandle) string {
	if s, ok := a.subscription("SubscriptionProviderID", h); ok {
		return s.ProviderID()
	}
	return ""
}

// SubscriptionChannelID returns the channel half of the subscription pattern.
func (a *API) SubscriptionChannelID(h SubscriptionHandle) string {
	if s, ok := a.subscription("SubscriptionChannelID", h); ok {
		return s.ChannelID()
	}
	return ""
}

// Pull blocks until messages arrive, the subscription ends or ctx is done.
func (a *API) Pull(ctx context.Context, h SubscriptionHandle) []chat.Message {
	if s, ok := a.subscription("Pull", h); ok {
		return s.Pull(ctx)
	}
	return nil
}

// Unsubscribe stops delivery and wakes a blocked Pull. The handle stays valid until
// DeleteSubscription.
func (a *API) Unsubscribe(h SubscriptionHandle) {
	if s, ok := a.subscription("Unsubscribe", h); ok {
		s.Unsubscribe()
	}
}

// DeleteSubscription unsubscribes, forgets a subscription made by this plugin and zeroes *h.
func (a *API) DeleteSubscription(h *SubscriptionHandle) {
	if h == nil || h.IsZero() {
		a.log.Error("DeleteSubscription: subscription handle is null")
		return
	}
	defer func() { *h = SubscriptionHandle{} }()

	s, found, owned := a.host.subscriptions.take(h.id, a)
	switch {
	case !found:
		a.log.Error("DeleteSubscription: unknown subscription handle", slog.String("handle", h.String()))
	case !owned:
		a.log.Error("DeleteSubscription: subscription handle not owned by this plugin", slog.String("handle", h.String()))
	default:
		s.Unsubscribe()
	}
}
