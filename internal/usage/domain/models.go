// Package domain contains raw usage events and the per-period aggregation
// types. Events are append-only and are never deduplicated by content:
// overlapping syncs may double-ingest and that is accepted.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
)

type UsageSource string

const (
	SourceSync    UsageSource = "sync"
	SourceWebhook UsageSource = "webhook"
)

type UsageEvent struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	LineID     snowflake.ID `gorm:"not null;index" json:"line_id"`
	MbUsed     int64        `gorm:"not null" json:"mb_used"`
	Source     UsageSource  `gorm:"type:text;not null" json:"source"`
	OccurredAt time.Time    `gorm:"not null;index" json:"occurred_at"`
}

func (UsageEvent) TableName() string { return "usage_events" }

// LineUsage is one line's aggregated usage for a period. Every tenant line
// appears exactly once, terminated and zero-usage lines included.
type LineUsage struct {
	LineID       snowflake.ID          `json:"line_id"`
	EmployeeID   snowflake.ID          `json:"employee_id"`
	EmployeeName string                `json:"employee_name"`
	Team         string                `json:"team"`
	CostCenter   string                `json:"cost_center"`
	Status       linedomain.LineStatus `json:"status"`
	UsedMb       int64                 `json:"used_mb"`
	AllocatedMb  int64                 `json:"allocated_mb"`
	UsagePct     float64               `json:"usage_pct"`
}

type Summary struct {
	Period      string      `json:"period"`
	TotalUsedMb int64       `json:"total_used_mb"`
	Lines       []LineUsage `json:"lines"`
}

type SyncResult struct {
	EventsIngested int `json:"events_ingested"`
	AlertsOpened   int `json:"alerts_opened"`
}

type Service interface {
	// Sync pulls usage from the provider for every active line, appends
	// the events, and runs policy evaluation as its final step.
	Sync(ctx context.Context, tenantID snowflake.ID, actorEmail string) (SyncResult, error)

	// Summary aggregates the tenant's events for the period containing
	// asOf. It is the single usage snapshot consumed by both the policy
	// evaluator and the spend calculator.
	Summary(ctx context.Context, tenantID snowflake.ID, actorEmail string, asOf time.Time) (Summary, error)
}
