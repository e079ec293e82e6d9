package tenant

import (
	"github.com/tphona/fleetline/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(service.NewService),
)
