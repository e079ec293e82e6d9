package provider

import (
	"github.com/tphona/fleetline/internal/config"
	"github.com/tphona/fleetline/internal/provider/oneglobal"
	"go.uber.org/fx"
)

func NewProviderRegistry(cfg config.Config) *Registry {
	registry := NewRegistry()
	registry.Register(oneglobal.Name, oneglobal.New(cfg.OneGlobalWebhookSecret))
	return registry
}

// Module wires the connectivity-provider registry.
var Module = fx.Module("provider",
	fx.Provide(NewProviderRegistry),
)
