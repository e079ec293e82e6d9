package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	"github.com/tphona/fleetline/internal/metrics"
	"github.com/tphona/fleetline/internal/period"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
	webhookdomain "github.com/tphona/fleetline/internal/webhook/domain"
	"github.com/tphona/fleetline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Audit   auditdomain.Service
	Alerts  alertdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	audit   auditdomain.Service
	alerts  alertdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) webhookdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("webhook.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		audit:   p.Audit,
		alerts:  p.Alerts,
		metrics: p.Metrics,
	}
}

// Ingest runs without the access gate: there is no human actor here, the
// provider itself is the authenticated source. It also never calls back
// out to the provider.
func (s *Service) Ingest(ctx context.Context, providerName string, event providerdomain.WebhookEvent) (webhookdomain.Result, error) {
	receipt := webhookdomain.Receipt{
		ID:              s.genID.Generate(),
		Provider:        providerName,
		ExternalEventID: event.ID,
		ReceivedAt:      s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&receipt).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.countDelivery(providerName, "duplicate")
			return webhookdomain.Result{Accepted: true, Reason: webhookdomain.ReasonDuplicateEvent}, nil
		}
		return webhookdomain.Result{}, err
	}

	// The receipt stays recorded even when no line matches, so a retried
	// delivery of this event id will short-circuit as a duplicate. A line
	// arriving later is never retro-applied from this event.
	var line linedomain.Line
	err := s.db.WithContext(ctx).
		Where("provider_line_id = ?", event.ProviderLineID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.countDelivery(providerName, "line_not_found")
			return webhookdomain.Result{Accepted: false, Reason: webhookdomain.ReasonLineNotFound}, nil
		}
		return webhookdomain.Result{}, err
	}

	target, ok := targetStatus(event.Type)
	if !ok {
		return webhookdomain.Result{}, providerdomain.ErrUnsupportedEvent
	}

	// Terminated is absorbing: a stale provider event cannot resurrect a
	// line.
	if line.Status == linedomain.StatusTerminated {
		s.countDelivery(providerName, "stale")
		return webhookdomain.Result{Accepted: true}, nil
	}

	line.Status = target
	line.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&line).Error; err != nil {
		return webhookdomain.Result{}, err
	}

	if err := s.audit.Record(ctx, line.TenantID, "provider.webhook_applied", providerName, "line", line.ID.String(), map[string]any{
		"event_type":       string(event.Type),
		"provider_line_id": line.ProviderLineID,
	}); err != nil {
		s.log.Warn("webhook applied but audit write failed", zap.Error(err))
	}

	if target == linedomain.StatusSuspended {
		lineID := line.ID
		employeeID := line.EmployeeID
		if _, err := s.alerts.Upsert(ctx, alertdomain.UpsertRequest{
			TenantID:   line.TenantID,
			Key:        fmt.Sprintf("%s:line:%s:provider-suspended", period.Key(s.clock.Now()), lineID),
			Severity:   alertdomain.SeverityInfo,
			Message:    "Provider reported line suspension.",
			LineID:     &lineID,
			EmployeeID: &employeeID,
		}); err != nil {
			return webhookdomain.Result{}, err
		}
	}

	s.countDelivery(providerName, "applied")
	return webhookdomain.Result{Accepted: true}, nil
}

func targetStatus(eventType providerdomain.WebhookEventType) (linedomain.LineStatus, bool) {
	switch eventType {
	case providerdomain.EventLineSuspended:
		return linedomain.StatusSuspended, true
	case providerdomain.EventLineReactivated:
		return linedomain.StatusActive, true
	case providerdomain.EventLineTerminated:
		return linedomain.StatusTerminated, true
	}
	return "", false
}

func (s *Service) countDelivery(providerName, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookDeliveries.WithLabelValues(providerName, outcome).Inc()
	}
}
