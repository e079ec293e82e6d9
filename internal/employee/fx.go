package employee

import (
	"github.com/tphona/fleetline/internal/employee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("employee.service",
	fx.Provide(service.NewService),
)
