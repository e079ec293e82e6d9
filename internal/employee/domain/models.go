package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Employee struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name             string       `gorm:"type:text;not null" json:"name"`
	Email            string       `gorm:"type:text;not null" json:"email"`
	Team             string       `gorm:"type:text;not null" json:"team"`
	CostCenter       string       `gorm:"type:text;not null" json:"cost_center"`
	MonthlyDataCapMb int64        `gorm:"not null" json:"monthly_data_cap_mb"`
	IsActive         bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
}

func (Employee) TableName() string { return "employees" }

type CreateEmployeeRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Team             string `json:"team"`
	CostCenter       string `json:"cost_center"`
	MonthlyDataCapMb int64  `json:"monthly_data_cap_mb"`
}

type Service interface {
	List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]Employee, error)
	Create(ctx context.Context, tenantID snowflake.ID, actorEmail string, req CreateEmployeeRequest) (*Employee, error)
}

var (
	ErrEmployeeNotFound = errors.New("employee_not_found")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidDataCap   = errors.New("invalid_data_cap")
)
