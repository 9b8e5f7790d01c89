package plugin

import "context"

// APIVersion is the version of the API the host hands to plugins.
// Plugins built for an older version are refused.
const APIVersion = 3

// Info describes a plugin. Name identifies the plugin within a host.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
	AccentColor string `json:"accent_color,omitempty"`
	Website     string `json:"website,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
	License     string `json:"license,omitempty"`
}

// BasicInfo is the host's view of a loaded plugin.
type BasicInfo struct {
	Info
	APIVersion int `json:"api_version"`
}

// Plugin is an in-process extension that produces or consumes chat messages
// through the API it receives on activation.
type Plugin interface {
	// APIVersion reports the API version the plugin was built for.
	APIVersion() int
	// Info is called once, before activation.
	Info() Info
	// Activate starts the plugin. Long-running work must run in goroutines
	// owned by the plugin; Activate itself should return promptly.
	Activate(ctx context.Context, api *API) error
	// Deactivate stops everything started by Activate. ctx carries the host's
	// deactivation deadline.
	Deactivate(ctx context.Context) error
}

// VersionAccepter is implemented by plugins that want to refuse hosts
// with an API version they don't support.
type VersionAccepter interface {
	AcceptAPIVersion(version int) bool
}
