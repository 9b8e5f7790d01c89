package youtube

import "time"

// Config holds YouTube provider settings loaded from the environment.
//
// Either APIKey or both ClientSecretFile and TokenFile must be set. TokenFile holds an
// OAuth2 token as JSON, as written by an earlier authorization flow.
type Config struct {
	APIKey            string        `env:"YOUTUBE_API_KEY"`
	ClientSecretFile  string        `env:"YOUTUBE_CLIENT_SECRET_FILE"`
	TokenFile         string        `env:"YOUTUBE_TOKEN_FILE"`
	Channels          []string      `env:"YOUTUBE_CHANNELS" envSeparator:","`
	DiscoveryInterval time.Duration `env:"YOUTUBE_DISCOVERY_INTERVAL" envDefault:"30s"`
	RetryInterval     time.Duration `env:"YOUTUBE_RETRY_INTERVAL" envDefault:"5s"`
	MinPollInterval   time.Duration `env:"YOUTUBE_MIN_POLL_INTERVAL" envDefault:"2s"`
}

// Enabled reports whether any channel is configured.
func (c Config) Enabled() bool {
	return len(c.Channels) > 0
}

func (c Config) withDefaults() Config {
	if c.DiscoveryInterval <= 0 {
		c.DiscoveryInterval = 30 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 5 * time.Second
	}
	if c.MinPollInterval <= 0 {
		c.MinPollInterval = 2 * time.Second
	}
	return c
}
