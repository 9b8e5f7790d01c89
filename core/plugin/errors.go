package plugin

import "errors"

var (
	ErrUnsupportedAPIVersion = errors.New("plugin's API version not supported by host")
	ErrAPIVersionRejected    = errors.New("host's API version not supported by plugin")
	ErrEmptyPluginName       = errors.New("plugin name can't be blank")
	ErrPluginExists          = errors.New("plugin with this name is already loaded")
	ErrPluginNotFound        = errors.New("plugin not loaded")
	ErrActivationFailed      = errors.New("couldn't activate plugin")
	ErrHostClosed            = errors.New("plugin host is closed")
)
