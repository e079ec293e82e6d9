package webhook

import (
	"github.com/tphona/fleetline/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(service.NewService),
)
