// Package migration keeps the schema in sync with the models at boot.
package migration

import (
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	webhookdomain "github.com/tphona/fleetline/internal/webhook/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.TenantDomain{},
		&tenantdomain.Membership{},
		&employeedomain.Employee{},
		&plandomain.Plan{},
		&linedomain.Line{},
		&usagedomain.UsageEvent{},
		&alertdomain.Alert{},
		&auditdomain.AuditLog{},
		&webhookdomain.Receipt{},
	)
}

// Module applies migrations during startup.
var Module = fx.Module("migration",
	fx.Invoke(Run),
)
