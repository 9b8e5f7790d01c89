package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
)

const defaultDeactivateTimeout = 10 * time.Second

// Broker is the part of chat.Broker the host exposes to plugins.
type Broker interface {
	ChannelInfo() chat.Info
	RegisterProvider(id, name string) (*chat.Provider, error)
	Subscribe(providerID, channelID string) (*chat.Subscription, error)
}

type loaded struct {
	plugin Plugin
	info   BasicInfo
	api    *API
}

// Host loads plugins, hands each one an API bound to the broker and cleans up
// whatever a plugin leaves behind when it is unloaded.
type Host struct {
	broker            Broker
	baseLog           *slog.Logger
	log               *slog.Logger
	deactivateTimeout time.Duration
	closed            atomic.Bool

	mu      sync.Mutex
	plugins []*loaded

	providers     *handleTable[*chat.Provider]
	channels      *handleTable[*chat.Channel]
	subscriptions *handleTable[*chat.Subscription]
}

// NewHost creates a plugin host over broker.
func NewHost(broker Broker, opts ...Option) *Host {
	h := &Host{
		broker:            broker,
		baseLog:           logger.NewNop(),
		deactivateTimeout: defaultDeactivateTimeout,
		providers:         newHandleTable[*chat.Provider](),
		channels:          newHandleTable[*chat.Channel](),
		subscriptions:     newHandleTable[*chat.Subscription](),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = logger.Source(h.baseLog, "plugin.host")
	return h
}

// Load checks API compatibility, exchanges info and activates p.
// A plugin that fails to activate is unloaded and ErrActivationFailed is returned.
func (h *Host) Load(ctx context.Context, p Plugin) error {
	if h.closed.Load() {
		return ErrHostClosed
	}

	version := p.APIVersion()
	if version < APIVersion {
		h.log.Error("failed loading plugin",
			slog.Int("plugin_api_version", version),
			logger.Error(ErrUnsupportedAPIVersion))
		return fmt.Errorf("%w: plugin built for %d, host provides %d", ErrUnsupportedAPIVersion, version, APIVersion)
	}
	if va, ok := p.(VersionAccepter); ok && !va.AcceptAPIVersion(APIVersion) {
		h.log.Error("failed loading plugin", logger.Error(ErrAPIVersionRejected))
		return ErrAPIVersionRejected
	}

	info := p.Info()
	if info.Name == "" {
		h.log.Error("failed loading plugin", logger.Error(ErrEmptyPluginName))
		return ErrEmptyPluginName
	}

	l := &loaded{
		plugin: p,
		info:   BasicInfo{Info: info, APIVersion: version},
		api:    newAPI(h, info.Name),
	}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		return ErrHostClosed
	}
	for _, existing := range h.plugins {
		if existing.info.Name == info.Name {
			h.mu.Unlock()
			h.log.Error("failed loading plugin", logger.Plugin(info.Name), logger.Error(ErrPluginExists))
			return ErrPluginExists
		}
	}
	h.plugins = append(h.plugins, l)
	h.mu.Unlock()

	h.log.Info("plugin loaded",
		logger.Plugin(info.Name),
		slog.String("version", info.Version),
		slog.Int("api_version", version))

	if err := p.Activate(ctx, l.api); err != nil {
		h.log.Error("couldn't activate plugin, ignoring it", logger.Plugin(info.Name), logger.Error(err))
		h.remove(l)
		l.api.close()
		h.cleanup(l.api)
		return fmt.Errorf("%w %q: %w", ErrActivationFailed, info.Name, err)
	}

	h.log.Info("plugin activated", logger.Plugin(info.Name))
	return nil
}

// Unload deactivates the named plugin, then closes every provider, channel and
// subscription it still owns.
func (h *Host) Unload(ctx context.Context, name string) error {
	h.mu.Lock()
	var l *loaded
	for _, p := range h.plugins {
		if p.info.Name == name {
			l = p
			break
		}
	}
	h.mu.Unlock()

	if l == nil || !h.remove(l) {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return h.unload(ctx, l)
}

func (h *Host) unload(ctx context.Context, l *loaded) error {
	name := l.info.Name
	h.log.Info("deactivating and unloading plugin", logger.Plugin(name))

	dctx, cancel := context.WithTimeout(ctx, h.deactivateTimeout)
	defer cancel()

	start := time.Now()
	err := l.plugin.Deactivate(dctx)
	if err != nil {
		h.log.Error("plugin deactivation failed", logger.Plugin(name), logger.Error(err))
	}

	l.api.close()
	h.cleanup(l.api)

	h.log.Info("plugin unloaded", logger.Plugin(name), logger.Duration(time.Since(start)))
	if err != nil {
		return fmt.Errorf("deactivate plugin %q: %w", name, err)
	}
	return nil
}

// cleanup releases objects a plugin forgot to delete: subscriptions first, then
// channels, then providers.
func (h *Host) cleanup(api *API) {
	for _, s := range h.subscriptions.takeOwned(api) {
		h.log.Warn("plugin left a subscription behind, unsubscribing",
			logger.Plugin(api.name),
			logger.Pattern(s.ProviderID(), s.ChannelID()))
		s.Unsubscribe()
	}
	for _, c := range h.channels.takeOwned(api) {
		h.log.Warn("plugin left a channel behind, closing",
			logger.Plugin(api.name),
			logger.ProviderID(c.ProviderID()),
			logger.ChannelID(c.ID()))
		c.Close()
	}
	for _, p := range h.providers.takeOwned(api) {
		h.log.Warn("plugin left a provider behind, closing",
			logger.Plugin(api.name),
			logger.ProviderID(p.ID()))
		p.Close()
	}
}

func (h *Host) remove(l *loaded) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.plugins {
		if p == l {
			h.plugins = append(h.plugins[:i], h.plugins[i+1:]...)
			return true
		}
	}
	return false
}

// Plugins lists loaded plugins in load order.
func (h *Host) Plugins() []BasicInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]BasicInfo, 0, len(h.plugins))
	for _, p := range h.plugins {
		out = append(out, p.info)
	}
	return out
}

// Close unloads every plugin in reverse load order. It is idempotent.
func (h *Host) Close(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.mu.Lock()
	plugins := h.plugins
	h.plugins = nil
	h.mu.Unlock()

	h.log.Info("deactivating plugins", logger.Count("plugins", len(plugins)))

	var errs []error
	for i := len(plugins) - 1; i >= 0; i-- {
		if err := h.unload(ctx, plugins[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats reports how many plugins are loaded and how many live handles they hold.
type Stats struct {
	Plugins       int
	Providers     int
	Channels      int
	Subscriptions int
}

// Stats returns current host statistics.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	plugins := len(h.plugins)
	h.mu.Unlock()

	return Stats{
		Plugins:       plugins,
		Providers:     h.providers.len(),
		Channels:      h.channels.len(),
		Subscriptions: h.subscriptions.len(),
	}
}
