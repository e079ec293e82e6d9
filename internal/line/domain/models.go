// Package domain owns the line model and its lifecycle state machine.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type LineStatus string

const (
	StatusProvisioning LineStatus = "provisioning"
	StatusActive       LineStatus = "active"
	StatusSuspended    LineStatus = "suspended"
	StatusTerminated   LineStatus = "terminated"
)

// Line is a provisioned eSIM assigned to one employee. Allocation, price,
// and roaming are snapshots copied from the plan at provision or plan
// change time, so billing stays stable when the catalog moves.
type Line struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	EmployeeID      snowflake.ID `gorm:"not null;index" json:"employee_id"`
	Provider        string       `gorm:"type:text;not null" json:"provider"`
	ProviderLineID  string       `gorm:"type:text;not null;uniqueIndex" json:"provider_line_id"`
	ICCID           string       `gorm:"type:text;not null" json:"iccid"`
	ActivationCode  string       `gorm:"type:text;not null" json:"activation_code"`
	Status          LineStatus   `gorm:"type:text;not null" json:"status"`
	PlanID          snowflake.ID `gorm:"not null" json:"plan_id"`
	DataAllocatedMb int64        `gorm:"not null" json:"data_allocated_mb"`
	MonthlyPriceUsd float64      `gorm:"not null" json:"monthly_price_usd"`
	RoamingEnabled  bool         `gorm:"not null;default:false" json:"roaming_enabled"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Line) TableName() string { return "lines" }

type ProvisionRequest struct {
	EmployeeID string `json:"employee_id"`
	PlanID     string `json:"plan_id"`
}

type Service interface {
	List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]Line, error)
	Provision(ctx context.Context, tenantID snowflake.ID, actorEmail string, req ProvisionRequest) (*Line, error)
	Suspend(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*Line, error)
	Reactivate(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*Line, error)
	Terminate(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*Line, error)
	ChangePlan(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string, planID string) (*Line, error)
	SetAllocation(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string, dataAllocatedMb int64) (*Line, error)
}

var (
	ErrLineNotFound      = errors.New("line_not_found")
	ErrInvalidState      = errors.New("invalid_state")
	ErrInvalidEmployee   = errors.New("invalid_employee")
	ErrInvalidPlan       = errors.New("invalid_plan")
	ErrInvalidAllocation = errors.New("invalid_allocation")
)
