package chat

import "maps"

// Message is a single chat message. Provider and channel fields are stamped by the
// Channel the message is pushed into; whatever the producer sets there is overwritten.
//
// A Message is treated as immutable once pushed: every subscriber receives its own copy,
// including its own Metadata map.
type Message struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ChannelID    string `json:"channel_id"`
	ChannelName  string `json:"channel_name"`

	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserColor string `json:"user_color,omitempty"`
	Text      string `json:"text"`

	IsMod         bool `json:"is_mod"`
	IsBroadcaster bool `json:"is_broadcaster"`
	IsPaidMember  bool `json:"is_paid_member"`

	// Timestamp is producer supplied (Unix milliseconds) or zero.
	Timestamp int64 `json:"timestamp"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a copy of m that shares no mutable state with it.
func (m Message) Clone() Message {
	if m.Metadata != nil {
		m.Metadata = maps.Clone(m.Metadata)
	}
	return m
}

func cloneBatch(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i := range msgs {
		out[i] = msgs[i].Clone()
	}
	return out
}
