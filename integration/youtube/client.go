package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// LiveAPI is the subset of the YouTube Data API the provider needs.
type LiveAPI interface {
	// ChannelTitle returns the display title of a YouTube channel.
	ChannelTitle(ctx context.Context, channelID string) (string, error)
	// FindLiveVideo returns the id of the channel's current live broadcast,
	// or an empty string when the channel is offline.
	FindLiveVideo(ctx context.Context, channelID string) (string, error)
	// LiveChatID resolves the active live chat of a video.
	LiveChatID(ctx context.Context, videoID string) (string, error)
	// ListMessages fetches the next page of chat messages.
	ListMessages(ctx context.Context, liveChatID, pageToken string) (*yt.LiveChatMessageListResponse, error)
}

// Client implements LiveAPI over the official client library.
type Client struct {
	svc *yt.Service
}

// NewClient builds a client from cfg: OAuth2 when a client secret and token file are
// configured, otherwise the API key.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.ClientSecretFile != "" && cfg.TokenFile != "":
		httpClient, err := oauthClient(ctx, cfg.ClientSecretFile, cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		opt = option.WithHTTPClient(httpClient)
	case cfg.APIKey != "":
		opt = option.WithAPIKey(cfg.APIKey)
	default:
		return nil, ErrNoCredentials
	}

	svc, err := yt.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func oauthClient(ctx context.Context, secretFile, tokenFile string) (*http.Client, error) {
	secret, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("youtube: read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, yt.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("youtube: parse client secret: %w", err)
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("youtube: read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("youtube: parse token: %w", err)
	}
	return conf.Client(ctx, &token), nil
}

func (c *Client) ChannelTitle(ctx context.Context, channelID string) (string, error) {
	resp, err := c.svc.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube: fetch channel: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", nil
	}
	return resp.Items[0].Snippet.Title, nil
}

func (c *Client) FindLiveVideo(ctx context.Context, channelID string) (string, error) {
	resp, err := c.svc.Search.List([]string{"id"}).
		ChannelId(channelID).
		EventType("live").
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("youtube: search live video: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return "", nil
	}
	return resp.Items[0].Id.VideoId, nil
}

func (c *Client) LiveChatID(ctx context.Context, videoID string) (string, error) {
	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube: fetch video: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	details := resp.Items[0].LiveStreamingDetails
	if details == nil || details.ActiveLiveChatId == "" {
		return "", ErrLiveChatUnavailable
	}
	return details.ActiveLiveChatId, nil
}

func (c *Client) ListMessages(ctx context.Context, liveChatID, pageToken string) (*yt.LiveChatMessageListResponse, error) {
	call := c.svc.LiveChatMessages.List(liveChatID, []string{"snippet", "authorDetails"}).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: list chat messages: %w", err)
	}
	return resp, nil
}

// chatEnded reports whether err means the live chat is gone for good
// (the broadcast ended or the chat was disabled).
func chatEnded(err error) bool {
	if errors.Is(err, ErrLiveChatUnavailable) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusNotFound
	}
	return false
}
