package wiresplit

import (
	"context"

	"github.com/bft-labs/wiresplit/pkg/tags"
)

// Plugin extends a Wiresplit instance with background work tied to its
// lifetime.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called from Start. ctx is cancelled when the instance
	// stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, or when the agent finishes by itself.
	Shutdown(ctx context.Context) error
}

// PluginConfig is the part of the instance a plugin may use.
type PluginConfig struct {
	TagsFile string
	// Tags is the registry used to name message types. It is safe for
	// concurrent use and may be updated in place.
	Tags   *tags.Registry
	Logger Logger
}
