package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the kind of every validation failure (e.g. a blank id).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is the kind of every duplicate-registration failure.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmptyProviderID is returned when registering a provider with a blank id.
	ErrEmptyProviderID = fmt.Errorf("%w: provider id can't be blank", ErrInvalidArgument)

	// ErrEmptyChannelID is returned when registering a channel with a blank id.
	ErrEmptyChannelID = fmt.Errorf("%w: channel id can't be blank", ErrInvalidArgument)

	// ErrProviderExists is returned when a provider id is already registered.
	ErrProviderExists = fmt.Errorf("provider %w", ErrAlreadyExists)

	// ErrChannelExists is returned when a channel id is already registered on the provider.
	ErrChannelExists = fmt.Errorf("channel %w", ErrAlreadyExists)

	// ErrProviderAbandoned is returned when registering a channel on a provider
	// whose broker has shut down.
	ErrProviderAbandoned = errors.New("can't register new channel when abandoned by parent")

	// ErrProviderClosed is returned when registering a channel on a provider that was closed.
	ErrProviderClosed = errors.New("can't register new channel on a closed provider")

	// ErrBrokerClosed is returned by registration and subscription after the broker shut down.
	ErrBrokerClosed = errors.New("chat broker is closed")

	// ErrHealthcheckFailed wraps the reason a broker is not healthy.
	ErrHealthcheckFailed = errors.New("chat broker healthcheck failed")
)
