package youtube

import "errors"

var (
	ErrNoCredentials         = errors.New("youtube: api key or oauth client secret and token file required")
	ErrVideoNotFound         = errors.New("youtube: video not found")
	ErrLiveChatUnavailable   = errors.New("youtube: live chat not available for this video")
	ErrProviderNotRegistered = errors.New("youtube: provider registration failed")
)
