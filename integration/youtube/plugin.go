package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
	"github.com/dmitrymomot/chatrelay/core/plugin"
)

const (
	ProviderID   = "youtube"
	ProviderName = "YouTube"
	pluginName   = "youtube"
)

// Plugin relays YouTube live chats into the broker. It registers the "youtube"
// provider and one channel per configured YouTube channel id.
type Plugin struct {
	cfg    Config
	client LiveAPI

	mu       sync.Mutex
	api      *plugin.API
	provider plugin.ProviderHandle
	channels []plugin.ChannelHandle
	cancel   context.CancelFunc
	group    *errgroup.Group
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates the plugin. client is usually a *Client from NewClient.
func New(cfg Config, client LiveAPI) *Plugin {
	return &Plugin{cfg: cfg.withDefaults(), client: client}
}

func (p *Plugin) APIVersion() int { return plugin.APIVersion }

func (p *Plugin) Info() plugin.Info {
	return plugin.Info{
		Name:        pluginName,
		Version:     "1.0.0",
		Description: "Relays YouTube live chat messages",
		AccentColor: "#FF0000",
		Website:     "https://www.youtube.com",
	}
}

// Activate registers the provider and channels and starts one poller per channel.
func (p *Plugin) Activate(ctx context.Context, api *plugin.API) error {
	provider := api.RegisterProvider(ProviderID, ProviderName)
	if provider.IsZero() {
		return ErrProviderNotRegistered
	}

	log := logger.Source(api.Logger(), "youtube", logger.ProviderID(ProviderID))

	runCtx, cancel := context.WithCancel(context.Background())
	group, runCtx := errgroup.WithContext(runCtx)

	var channels []plugin.ChannelHandle
	for _, channelID := range p.cfg.Channels {
		name, err := p.client.ChannelTitle(ctx, channelID)
		if err != nil {
			log.Warn("couldn't fetch channel title", logger.ChannelID(channelID), logger.Error(err))
		}
		if name == "" {
			name = channelID
		}

		ch := api.RegisterChannel(provider, channelID, name)
		if ch.IsZero() {
			continue
		}
		channels = append(channels, ch)

		pl := &poller{
			channelID: channelID,
			api:       p.client,
			cfg:       p.cfg,
			push:      func(msgs []chat.Message) { api.PushMany(ch, msgs) },
			log:       logger.Source(log, "youtube.poller", logger.ChannelID(channelID)),
		}
		group.Go(func() error { return pl.run(runCtx) })
	}

	p.mu.Lock()
	p.api = api
	p.provider = provider
	p.channels = channels
	p.cancel = cancel
	p.group = group
	p.mu.Unlock()

	api.Log(slog.LevelInfo, "relaying ", len(channels), " YouTube channel(s)")
	return nil
}

// Deactivate stops the pollers and releases the channels and the provider.
func (p *Plugin) Deactivate(ctx context.Context) error {
	p.mu.Lock()
	api, provider, channels := p.api, p.provider, p.channels
	cancel, group := p.cancel, p.group
	p.api, p.channels, p.cancel, p.group = nil, nil, nil, nil
	p.mu.Unlock()

	if api == nil {
		return nil
	}

	cancel()
	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("youtube: pollers still running: %w", ctx.Err())
	}

	for i := range channels {
		api.DeleteChannel(&channels[i])
	}
	api.DeleteProvider(&provider)
	return err
}
