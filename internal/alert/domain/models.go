// Package domain contains threshold alerts. The (tenant, key) pair is
// unique and the key encodes period, subject, and condition, which makes
// alert creation idempotent across repeated evaluations within a period.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

type Alert struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID  `gorm:"not null;uniqueIndex:idx_alerts_tenant_key" json:"tenant_id"`
	Key        string        `gorm:"type:text;not null;uniqueIndex:idx_alerts_tenant_key" json:"key"`
	LineID     *snowflake.ID `gorm:"index" json:"line_id,omitempty"`
	EmployeeID *snowflake.ID `json:"employee_id,omitempty"`
	Severity   Severity      `gorm:"type:text;not null" json:"severity"`
	Status     Status        `gorm:"type:text;not null" json:"status"`
	Message    string        `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updated_at"`
}

func (Alert) TableName() string { return "alerts" }

type UpsertRequest struct {
	TenantID   snowflake.ID
	Key        string
	Severity   Severity
	Message    string
	LineID     *snowflake.ID
	EmployeeID *snowflake.ID
}

type Service interface {
	// Upsert opens the alert identified by (tenant, key). It reports true
	// only for a first-time insert: an existing open alert is untouched
	// and a resolved one is reopened, both returning false.
	Upsert(ctx context.Context, req UpsertRequest) (bool, error)

	// Evaluate applies the usage thresholds to an aggregated snapshot and
	// returns the count of freshly created alerts.
	Evaluate(ctx context.Context, tenantID snowflake.ID, periodKey string, lines []usagedomain.LineUsage) (int, error)

	List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]Alert, error)
}
