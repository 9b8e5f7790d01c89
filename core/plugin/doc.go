// Package plugin hosts in-process chat plugins.
//
// A plugin is a value implementing Plugin. The Host checks its API version, reads its
// Info and activates it with an *API: a handle-based view of the chat broker bound to
// that plugin. Handles are opaque; the zero handle is null. API calls never return
// errors: bad handles and broker failures are logged and produce zero results, so a
// misbehaving plugin can't take the host down.
//
// Every provider, channel and subscription a plugin creates is owned by it. Only the
// owner can delete it, and whatever the plugin still owns when it is unloaded is
// released by the host.
//
//	host := plugin.NewHost(broker, plugin.WithLogger(log))
//	defer host.Close(context.Background())
//
//	if err := host.Load(ctx, youtube.New(cfg)); err != nil {
//		log.Error("plugin not loaded", logger.Error(err))
//	}
//
// Inside a plugin:
//
//	func (p *myPlugin) Activate(ctx context.Context, api *plugin.API) error {
//		p.provider = api.RegisterProvider("kick", "Kick")
//		if p.provider.IsZero() {
//			return errors.New("provider not registered")
//		}
//		p.channel = api.RegisterChannel(p.provider, "streamer", "Streamer")
//		api.PushOne(p.channel, chat.Message{UserName: "bot", Text: "connected"})
//		return nil
//	}
package plugin
