// Package chat provides an in-process chat message broker that aggregates messages from
// many streaming platforms and fans them out to any number of consumers.
//
// # Concepts
//
//   - Provider: a named message source (one platform integration) owning channels.
//   - Channel: a named sink scoped to one provider. Producers push messages into it.
//   - Subscription: a consumer's request for messages matching a (provider, channel)
//     pattern, with a private queue and a blocking batched Pull.
//   - Broker: the registry of providers plus the routing table of subscriptions. One
//     dispatcher goroutine drains the shared incoming queue and routes every message.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/chatrelay/core/chat"
//
//	broker := chat.New(chat.WithLogger(log))
//	defer broker.Close()
//
//	provider, err := broker.RegisterProvider("twitch", "Twitch")
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	channel, err := provider.RegisterChannel("streamer", "Streamer")
//	if err != nil {
//		return err
//	}
//	defer channel.Close()
//
//	sub, _ := broker.Subscribe("twitch", "") // every twitch channel
//	defer sub.Unsubscribe()
//
//	channel.Push(chat.Message{UserName: "alice", Text: "hello"})
//
//	for {
//		batch := sub.Pull(ctx)
//		if len(batch) == 0 {
//			return nil // unsubscribed, broker closed or ctx done
//		}
//		for _, msg := range batch {
//			fmt.Println(msg.ChannelName, msg.UserName, msg.Text)
//		}
//	}
//
// # Routing
//
// An empty provider or channel id in Subscribe is a wildcard. A message stamped with
// (P, C) is delivered to every subscription registered under (P, C), (P, ""), ("", C)
// and ("", ""). Each subscription lives in exactly one of those buckets, so it receives
// at most one copy of a message. A consumer holding several overlapping subscriptions
// receives one copy through each of them.
//
// Messages pushed into one channel reach every matching subscription in push order.
// No order is guaranteed between different channels.
//
// # Teardown
//
// Objects may be closed in any order and from any goroutine:
//
//   - Closing a child (channel, provider, subscription) deregisters it from its parent.
//   - Closing a parent abandons its children: they stop calling into the parent, pushes
//     into an abandoned channel are logged and dropped, registration on an abandoned
//     provider fails with ErrProviderAbandoned and Pull on an abandoned subscription
//     returns an empty batch.
//   - Broker.Close stops the dispatcher and waits for it, then abandons everything.
//
// All Close methods are idempotent.
//
// # Errors
//
// Validation failures wrap ErrInvalidArgument and duplicates wrap ErrAlreadyExists:
//
//	if errors.Is(err, chat.ErrAlreadyExists) {
//		// pick another id
//	}
//
// Nothing on the dispatch path returns an error: delivery problems are logged and
// absorbed so that one faulty consumer can't stop delivery to the others.
package chat
