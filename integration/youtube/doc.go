// Package youtube is a chat plugin relaying YouTube live chats.
//
// For every configured YouTube channel id the plugin registers a channel under the
// "youtube" provider and runs a poller that:
//
//  1. searches for the channel's live broadcast every DiscoveryInterval,
//  2. resolves the broadcast's active live chat,
//  3. lists chat messages page by page, waiting the interval the API asks for
//     (never less than MinPollInterval), and pushes them into the channel,
//  4. goes back to discovery once the chat ends.
//
// Usage:
//
//	client, err := youtube.NewClient(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := host.Load(ctx, youtube.New(cfg, client)); err != nil {
//		return err
//	}
//
// Messages carry the author's channel id and display name, moderator, owner and
// sponsor flags, and the publish time. The YouTube message id and type are kept in
// Metadata, as is the display amount of Super Chats.
package youtube
