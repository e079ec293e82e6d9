// Package domain contains webhook receipts and the ingestion contract.
// The (provider, external event id) uniqueness row is what makes delivery
// retries harmless.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
)

type Receipt struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Provider        string       `gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	ExternalEventID string       `gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event" json:"external_event_id"`
	ReceivedAt      time.Time    `gorm:"not null" json:"received_at"`
}

func (Receipt) TableName() string { return "webhook_event_receipts" }

const (
	ReasonDuplicateEvent = "duplicate_event"
	ReasonLineNotFound   = "line_not_found"
)

type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type Service interface {
	// Ingest applies one verified provider event at most once. Duplicate
	// event ids short-circuit before any side effect.
	Ingest(ctx context.Context, providerName string, event providerdomain.WebhookEvent) (Result, error)
}
