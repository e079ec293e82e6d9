// Package domain contains the append-only audit trail. Core logic only
// writes here; it never reads its own entries back.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	Actor      string            `gorm:"type:text;not null" json:"actor"`
	EntityType string            `gorm:"type:text;not null" json:"entity_type"`
	EntityID   string            `gorm:"type:text;not null" json:"entity_id"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	// Record appends one audit entry. Failures must be reported to the
	// caller but never roll back the mutation they describe.
	Record(ctx context.Context, tenantID snowflake.ID, action, actor, entityType, entityID string, details map[string]any) error
	List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]AuditLog, error)
}

var ErrInvalidAction = errors.New("invalid_action")
