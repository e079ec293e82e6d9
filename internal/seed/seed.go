// Package seed loads the demo dataset for local development: two tenants,
// a shared plan catalog, and a handful of Acme lines with usage.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	"github.com/tphona/fleetline/internal/provider/oneglobal"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	"gorm.io/gorm"
)

// EnsureDemoData inserts the demo dataset once; reruns are no-ops.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing tenantdomain.Tenant
		err := tx.Where("slug = ?", "acme").First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()

		acme := tenantdomain.Tenant{
			ID: node.Generate(), Slug: "acme", Name: "Acme Industries",
			Provider: oneglobal.Name, CreatedAt: now,
		}
		globex := tenantdomain.Tenant{
			ID: node.Generate(), Slug: "globex", Name: "Globex Corporation",
			Provider: oneglobal.Name, CreatedAt: now,
		}
		if err := tx.Create([]*tenantdomain.Tenant{&acme, &globex}).Error; err != nil {
			return err
		}

		domains := []tenantdomain.TenantDomain{
			{ID: node.Generate(), TenantID: acme.ID, Host: "acme.localhost", IsPrimary: true, CreatedAt: now},
			{ID: node.Generate(), TenantID: globex.ID, Host: "globex.localhost", IsPrimary: true, CreatedAt: now},
		}
		if err := tx.Create(&domains).Error; err != nil {
			return err
		}

		memberships := []tenantdomain.Membership{
			{ID: node.Generate(), TenantID: acme.ID, UserEmail: "owner@acme.example", Role: tenantdomain.RoleOwner, CreatedAt: now},
			{ID: node.Generate(), TenantID: acme.ID, UserEmail: "finance@acme.example", Role: tenantdomain.RoleFinance, CreatedAt: now},
			{ID: node.Generate(), TenantID: globex.ID, UserEmail: "owner@globex.example", Role: tenantdomain.RoleOwner, CreatedAt: now},
		}
		if err := tx.Create(&memberships).Error; err != nil {
			return err
		}

		jordan := employeedomain.Employee{
			ID: node.Generate(), TenantID: acme.ID, Name: "Jordan Lee",
			Email: "jordan.lee@acme.example", Team: "Sales", CostCenter: "CC-100",
			MonthlyDataCapMb: 8192, IsActive: true, CreatedAt: now,
		}
		taylor := employeedomain.Employee{
			ID: node.Generate(), TenantID: acme.ID, Name: "Taylor Brown",
			Email: "taylor.brown@acme.example", Team: "Operations", CostCenter: "CC-210",
			MonthlyDataCapMb: 10240, IsActive: true, CreatedAt: now,
		}
		casey := employeedomain.Employee{
			ID: node.Generate(), TenantID: globex.ID, Name: "Casey Nguyen",
			Email: "casey.nguyen@globex.example", Team: "Engineering", CostCenter: "ENG-44",
			MonthlyDataCapMb: 12288, IsActive: true, CreatedAt: now,
		}
		if err := tx.Create([]*employeedomain.Employee{&jordan, &taylor, &casey}).Error; err != nil {
			return err
		}

		starter := plandomain.Plan{
			ID: node.Generate(), Name: "Starter 3GB", IncludedDataMb: 3072,
			MonthlyPriceUsd: 25, OverageUsdPerMb: 0.025,
		}
		growth := plandomain.Plan{
			ID: node.Generate(), Name: "Growth 10GB", IncludedDataMb: 10240,
			MonthlyPriceUsd: 52, OverageUsdPerMb: 0.018, RoamingEnabled: true,
		}
		global := plandomain.Plan{
			ID: node.Generate(), Name: "Global 50GB", IncludedDataMb: 51200,
			MonthlyPriceUsd: 115, OverageUsdPerMb: 0.01, RoamingEnabled: true,
		}
		if err := tx.Create([]*plandomain.Plan{&starter, &growth, &global}).Error; err != nil {
			return err
		}

		lines := []linedomain.Line{
			{
				ID: node.Generate(), TenantID: acme.ID, EmployeeID: jordan.ID,
				Provider: oneglobal.Name, ProviderLineID: "1g-line-seeded-1",
				ICCID: "89882100111111111111", ActivationCode: "LPA:1$rsp.1global.demo$SEEDCODE01",
				Status: linedomain.StatusActive, PlanID: growth.ID,
				DataAllocatedMb: growth.IncludedDataMb, MonthlyPriceUsd: growth.MonthlyPriceUsd,
				RoamingEnabled: true, CreatedAt: now, UpdatedAt: now,
			},
			{
				ID: node.Generate(), TenantID: acme.ID, EmployeeID: taylor.ID,
				Provider: oneglobal.Name, ProviderLineID: "1g-line-seeded-2",
				ICCID: "89882100222222222222", ActivationCode: "LPA:1$rsp.1global.demo$SEEDCODE02",
				Status: linedomain.StatusSuspended, PlanID: starter.ID,
				DataAllocatedMb: starter.IncludedDataMb, MonthlyPriceUsd: starter.MonthlyPriceUsd,
				CreatedAt: now, UpdatedAt: now,
			},
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		usage := []usagedomain.UsageEvent{
			{ID: node.Generate(), TenantID: acme.ID, LineID: lines[0].ID, MbUsed: 1280, Source: usagedomain.SourceSync, OccurredAt: now},
			{ID: node.Generate(), TenantID: acme.ID, LineID: lines[1].ID, MbUsed: 1100, Source: usagedomain.SourceSync, OccurredAt: now},
		}
		return tx.Create(&usage).Error
	})
}
