package youtube

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
)

// pusher receives converted messages for one channel.
type pusher func(msgs []chat.Message)

// poller follows one YouTube channel: it waits for a live broadcast, then relays
// its chat until the broadcast ends, and starts over.
type poller struct {
	channelID string
	api       LiveAPI
	cfg       Config
	push      pusher
	log       *slog.Logger
}

func (p *poller) run(ctx context.Context) error {
	p.log.Debug("poller started")
	defer p.log.Debug("poller stopped")

	for {
		chatID, ok := p.discover(ctx)
		if !ok {
			return nil
		}
		p.log.Info("live chat found", slog.String("live_chat_id", chatID))

		p.poll(ctx, chatID)
		if ctx.Err() != nil {
			return nil
		}
		p.log.Info("live chat ended", slog.String("live_chat_id", chatID))
	}
}

// discover blocks until the channel is live and returns its live chat id.
// It reports false once ctx is done.
func (p *poller) discover(ctx context.Context) (string, bool) {
	for {
		videoID, err := p.api.FindLiveVideo(ctx, p.channelID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", false
			}
			p.log.Error("error fetching live video", logger.Error(err))
		case videoID != "":
			chatID, err := p.api.LiveChatID(ctx, videoID)
			if err == nil {
				return chatID, true
			}
			if ctx.Err() != nil {
				return "", false
			}
			p.log.Warn("live video has no chat yet", slog.String("video_id", videoID), logger.Error(err))
		}

		if !sleep(ctx, p.cfg.DiscoveryInterval) {
			return "", false
		}
	}
}

// poll relays messages until the chat ends or ctx is done.
func (p *poller) poll(ctx context.Context, chatID string) {
	var pageToken string
	for {
		resp, err := p.api.ListMessages(ctx, chatID, pageToken)
		if err != nil {
			if ctx.Err() != nil || chatEnded(err) {
				return
			}
			p.log.Error("error fetching live chat messages", logger.Error(err))
			if !sleep(ctx, p.cfg.RetryInterval) {
				return
			}
			continue
		}

		if msgs := toMessages(resp.Items); len(msgs) > 0 {
			p.push(msgs)
		}
		if resp.OfflineAt != "" {
			return
		}
		pageToken = resp.NextPageToken

		wait := time.Duration(resp.PollingIntervalMillis) * time.Millisecond
		if !sleep(ctx, max(wait, p.cfg.MinPollInterval)) {
			return
		}
	}
}

// sleep waits for d or until ctx is done. It reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
