package youtube

import (
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/dmitrymomot/chatrelay/core/chat"
)

// Metadata keys set on converted messages.
const (
	MetaMessageID   = "message_id"
	MetaMessageType = "type"
	MetaAmount      = "amount"
)

// toMessage converts a live chat item. Provider and channel fields are stamped later by
// the chat channel.
func toMessage(item *yt.LiveChatMessage) (chat.Message, bool) {
	if item == nil || item.Snippet == nil {
		return chat.Message{}, false
	}

	msg := chat.Message{
		Text:     item.Snippet.DisplayMessage,
		Metadata: map[string]string{MetaMessageID: item.Id},
	}
	if item.Snippet.Type != "" {
		msg.Metadata[MetaMessageType] = item.Snippet.Type
	}
	if sc := item.Snippet.SuperChatDetails; sc != nil && sc.AmountDisplayString != "" {
		msg.Metadata[MetaAmount] = sc.AmountDisplayString
		if msg.Text == "" {
			msg.Text = sc.UserComment
		}
	}

	if a := item.AuthorDetails; a != nil {
		msg.UserID = a.ChannelId
		msg.UserName = a.DisplayName
		msg.IsMod = a.IsChatModerator
		msg.IsBroadcaster = a.IsChatOwner
		msg.IsPaidMember = a.IsChatSponsor
	}

	if ts, err := time.Parse(time.RFC3339Nano, item.Snippet.PublishedAt); err == nil {
		msg.Timestamp = ts.UnixMilli()
	}

	return msg, true
}

func toMessages(items []*yt.LiveChatMessage) []chat.Message {
	out := make([]chat.Message, 0, len(items))
	for _, item := range items {
		if msg, ok := toMessage(item); ok {
			out = append(out, msg)
		}
	}
	return out
}
