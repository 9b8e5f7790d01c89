package youtube

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	yt "google.golang.org/api/youtube/v3"
)

func TestToMessage(t *testing.T) {
	t.Parallel()

	t.Run("super chat", func(t *testing.T) {
		t.Parallel()

		msg, ok := toMessage(&yt.LiveChatMessage{
			Id: "sc1",
			Snippet: &yt.LiveChatMessageSnippet{
				Type:        "superChatEvent",
				PublishedAt: "2024-05-01T12:00:00Z",
				SuperChatDetails: &yt.LiveChatSuperChatDetails{
					AmountDisplayString: "$5.00",
					UserComment:         "great stream",
				},
			},
			AuthorDetails: &yt.LiveChatMessageAuthorDetails{
				ChannelId:     "UCfan",
				DisplayName:   "fan",
				IsChatOwner:   true,
				IsChatSponsor: true,
			},
		})

		assert.True(t, ok)
		assert.Equal(t, "great stream", msg.Text)
		assert.Equal(t, "$5.00", msg.Metadata[MetaAmount])
		assert.Equal(t, "superChatEvent", msg.Metadata[MetaMessageType])
		assert.True(t, msg.IsBroadcaster)
		assert.True(t, msg.IsPaidMember)
		assert.False(t, msg.IsMod)
	})

	t.Run("bad timestamp and missing author", func(t *testing.T) {
		t.Parallel()

		msg, ok := toMessage(&yt.LiveChatMessage{
			Id:      "m",
			Snippet: &yt.LiveChatMessageSnippet{DisplayMessage: "x", PublishedAt: "yesterday"},
		})
		assert.True(t, ok)
		assert.Zero(t, msg.Timestamp)
		assert.Empty(t, msg.UserName)
	})

	t.Run("items without snippet are skipped", func(t *testing.T) {
		t.Parallel()

		msgs := toMessages([]*yt.LiveChatMessage{nil, {Id: "no-snippet"}, {Snippet: &yt.LiveChatMessageSnippet{DisplayMessage: "ok"}}})
		assert.Len(t, msgs, 1)
		assert.Equal(t, "ok", msgs[0].Text)
	})
}

func TestChatEnded(t *testing.T) {
	t.Parallel()

	assert.True(t, chatEnded(ErrLiveChatUnavailable))
	assert.True(t, chatEnded(&googleapi.Error{Code: http.StatusForbidden}))
	assert.True(t, chatEnded(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, chatEnded(&googleapi.Error{Code: http.StatusInternalServerError}))
	assert.False(t, chatEnded(errors.New("network down")))
}
