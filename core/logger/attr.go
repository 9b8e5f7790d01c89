package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit nil checks.

// AnyID is how an empty (wildcard) provider or channel id is rendered in logs.
const AnyID = "(any)"

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	count := 0
	for _, err := range errs {
		if err != nil {
			count++
		}
	}
	if count == 0 {
		return slog.Attr{}
	}

	as := make([]slog.Attr, 0, count)
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Panic records a recovered panic value.
func Panic(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("panic", v)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// ============================================================================
// Chat routing identifiers
// ============================================================================

// ProviderID creates an attribute for a chat provider id.
// An empty id is a wildcard and is rendered as "(any)".
func ProviderID(id string) slog.Attr {
	return slog.String("provider_id", orAny(id))
}

// ChannelID creates an attribute for a chat channel id.
// An empty id is a wildcard and is rendered as "(any)".
func ChannelID(id string) slog.Attr {
	return slog.String("channel_id", orAny(id))
}

// Pattern renders a provider/channel routing pattern as "provider:channel".
func Pattern(providerID, channelID string) slog.Attr {
	return slog.String("pattern", orAny(providerID)+":"+orAny(channelID))
}

// SubscriptionID creates an attribute for a subscription id.
func SubscriptionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("subscription_id", id)
}

// Plugin creates an attribute for a plugin name.
func Plugin(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("plugin", name)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
// It is the "source" of a named-source logger.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

func orAny(id string) string {
	if id == "" {
		return AnyID
	}
	return id
}
