package youtube_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	yt "google.golang.org/api/youtube/v3"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/plugin"
	"github.com/dmitrymomot/chatrelay/integration/youtube"
)

// fakeAPI serves scripted pages for one live chat per channel.
type fakeAPI struct {
	mu       sync.Mutex
	titles   map[string]string
	live     map[string]string // channel id -> video id
	chats    map[string]string // video id -> live chat id
	pages    map[string][]*yt.LiveChatMessageListResponse
	searches int
	tokens   []string
}

func (f *fakeAPI) ChannelTitle(_ context.Context, channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.titles[channelID], nil
}

func (f *fakeAPI) FindLiveVideo(_ context.Context, channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.live[channelID], nil
}

func (f *fakeAPI) LiveChatID(_ context.Context, videoID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.chats[videoID]
	if !ok {
		return "", youtube.ErrLiveChatUnavailable
	}
	return id, nil
}

func (f *fakeAPI) ListMessages(_ context.Context, liveChatID, pageToken string) (*yt.LiveChatMessageListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, pageToken)

	pages := f.pages[liveChatID]
	if len(pages) == 0 {
		// The broadcast is over: stop serving this chat.
		for ch, video := range f.live {
			if f.chats[video] == liveChatID {
				delete(f.live, ch)
			}
		}
		return nil, &googleapi.Error{Code: http.StatusForbidden, Message: "liveChatEnded"}
	}
	f.pages[liveChatID] = pages[1:]
	return pages[0], nil
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

func item(id, author, text string, mod bool) *yt.LiveChatMessage {
	return &yt.LiveChatMessage{
		Id: id,
		Snippet: &yt.LiveChatMessageSnippet{
			Type:           "textMessageEvent",
			DisplayMessage: text,
			PublishedAt:    "2024-05-01T12:00:00.5Z",
		},
		AuthorDetails: &yt.LiveChatMessageAuthorDetails{
			ChannelId:       "UC-" + author,
			DisplayName:     author,
			IsChatModerator: mod,
		},
	}
}

func testConfig(channels ...string) youtube.Config {
	return youtube.Config{
		Channels:          channels,
		DiscoveryInterval: 5 * time.Millisecond,
		RetryInterval:     5 * time.Millisecond,
		MinPollInterval:   time.Millisecond,
	}
}

func setup(t *testing.T) (*chat.Broker, *plugin.Host) {
	t.Helper()

	broker := chat.New()
	host := plugin.NewHost(broker, plugin.WithDeactivateTimeout(time.Second))
	t.Cleanup(func() {
		_ = host.Close(context.Background())
		_ = broker.Close()
	})
	return broker, host
}

func TestPlugin_RelaysLiveChat(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		titles: map[string]string{"UCstream": "Streamer"},
		live:   map[string]string{"UCstream": "video1"},
		chats:  map[string]string{"video1": "chat1"},
		pages: map[string][]*yt.LiveChatMessageListResponse{
			"chat1": {
				{
					Items:                 []*yt.LiveChatMessage{item("m1", "alice", "hi", false), item("m2", "bob", "yo", true)},
					NextPageToken:         "page2",
					PollingIntervalMillis: 1,
				},
				{
					Items:                 []*yt.LiveChatMessage{item("m3", "alice", "bye", false)},
					NextPageToken:         "page3",
					PollingIntervalMillis: 1,
				},
			},
		},
	}

	broker, host := setup(t)
	sub, err := broker.Subscribe(youtube.ProviderID, "")
	require.NoError(t, err)

	require.NoError(t, host.Load(context.Background(), youtube.New(testConfig("UCstream"), api)))

	info := broker.ChannelInfo()
	require.Equal(t, 1, info.ProviderCount)
	assert.Equal(t, youtube.ProviderName, info.Providers[0].Name)
	assert.Equal(t, []chat.ChannelInfo{{ID: "UCstream", Name: "Streamer"}}, info.Providers[0].Channels)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []chat.Message
	for len(got) < 3 {
		batch := sub.Pull(ctx)
		require.NotEmpty(t, batch)
		got = append(got, batch...)
	}

	assert.Equal(t, "hi", got[0].Text)
	assert.Equal(t, "alice", got[0].UserName)
	assert.Equal(t, "UC-alice", got[0].UserID)
	assert.Equal(t, "UCstream", got[0].ChannelID)
	assert.Equal(t, "Streamer", got[0].ChannelName)
	assert.Equal(t, youtube.ProviderID, got[0].ProviderID)
	assert.Equal(t, "m1", got[0].Metadata[youtube.MetaMessageID])
	assert.Equal(t, "textMessageEvent", got[0].Metadata[youtube.MetaMessageType])
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 500_000_000, time.UTC).UnixMilli(), got[0].Timestamp)

	assert.True(t, got[1].IsMod)
	assert.Equal(t, "bye", got[2].Text)

	// After the chat ends the poller goes back to discovery.
	before := api.searchCount()
	require.Eventually(t, func() bool { return api.searchCount() > before }, 2*time.Second, 5*time.Millisecond)

	api.mu.Lock()
	assert.Equal(t, []string{"", "page2", "page3"}, api.tokens[:3])
	api.mu.Unlock()

	require.NoError(t, host.Unload(context.Background(), "youtube"))
	assert.Equal(t, 0, broker.ChannelInfo().ProviderCount)
}

func TestPlugin_OfflineChannel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{live: map[string]string{}}
	broker, host := setup(t)

	require.NoError(t, host.Load(context.Background(), youtube.New(testConfig("UCoffline"), api)))

	require.Eventually(t, func() bool { return api.searchCount() >= 3 }, 2*time.Second, time.Millisecond)

	info := broker.ChannelInfo()
	require.Equal(t, 1, info.ProviderCount)
	assert.Equal(t, "UCoffline", info.Providers[0].Channels[0].Name, "title falls back to id")

	require.NoError(t, host.Unload(context.Background(), "youtube"))
	assert.Equal(t, plugin.Stats{}, host.Stats())
}

func TestPlugin_ProviderTaken(t *testing.T) {
	t.Parallel()

	broker, host := setup(t)
	_, err := broker.RegisterProvider(youtube.ProviderID, "Someone else")
	require.NoError(t, err)

	err = host.Load(context.Background(), youtube.New(testConfig("UC1"), &fakeAPI{}))
	assert.ErrorIs(t, err, plugin.ErrActivationFailed)
	assert.True(t, errors.Is(err, youtube.ErrProviderNotRegistered))
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := youtube.NewClient(context.Background(), youtube.Config{Channels: []string{"UC1"}})
	assert.ErrorIs(t, err, youtube.ErrNoCredentials)
}
