// Package domain contains the read-only plan catalog. A plan with a null
// tenant id is a shared catalog entry; a tenant-scoped plan is invisible
// outside its tenant.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Plan struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID        *snowflake.ID `gorm:"index" json:"tenant_id"`
	Name            string        `gorm:"type:text;not null" json:"name"`
	IncludedDataMb  int64         `gorm:"not null" json:"included_data_mb"`
	MonthlyPriceUsd float64       `gorm:"not null" json:"monthly_price_usd"`
	OverageUsdPerMb float64       `gorm:"not null" json:"overage_usd_per_mb"`
	RoamingEnabled  bool          `gorm:"not null;default:false" json:"roaming_enabled"`
}

func (Plan) TableName() string { return "plans" }

type Service interface {
	// List returns the catalog visible to the tenant: global plans plus
	// the tenant's own.
	List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]Plan, error)
}

var ErrPlanNotFound = errors.New("plan_not_found")
