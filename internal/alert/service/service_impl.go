package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	"github.com/tphona/fleetline/internal/clock"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	"github.com/tphona/fleetline/internal/metrics"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
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
	Access  accessdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	access  accessdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) alertdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("alert.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		access:  p.Access,
		metrics: p.Metrics,
	}
}

func (s *Service) Upsert(ctx context.Context, req alertdomain.UpsertRequest) (bool, error) {
	existing, err := s.findByKey(ctx, req.TenantID, req.Key)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, s.reopenIfResolved(ctx, existing, req)
	}

	now := s.clock.Now()
	alert := alertdomain.Alert{
		ID:         s.genID.Generate(),
		TenantID:   req.TenantID,
		Key:        req.Key,
		LineID:     req.LineID,
		EmployeeID: req.EmployeeID,
		Severity:   req.Severity,
		Status:     alertdomain.StatusOpen,
		Message:    req.Message,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		// A concurrent evaluator won the insert race. Converge on its row.
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.findByKey(ctx, req.TenantID, req.Key)
			if findErr != nil {
				return false, findErr
			}
			if existing == nil {
				return false, err
			}
			return false, s.reopenIfResolved(ctx, existing, req)
		}
		return false, err
	}

	if s.metrics != nil {
		s.metrics.AlertsOpened.WithLabelValues(req.TenantID.String(), string(req.Severity)).Inc()
	}
	return true, nil
}

// Evaluate walks the aggregated snapshot in its given order (usage
// descending) and applies at most the first matching tier per line.
func (s *Service) Evaluate(ctx context.Context, tenantID snowflake.ID, periodKey string, lines []usagedomain.LineUsage) (int, error) {
	created := 0
	for _, row := range lines {
		if row.Status == linedomain.StatusTerminated {
			continue
		}

		lineID := row.LineID
		employeeID := row.EmployeeID

		switch {
		case row.UsagePct >= 100:
			ok, err := s.Upsert(ctx, alertdomain.UpsertRequest{
				TenantID:   tenantID,
				Key:        fmt.Sprintf("%s:line:%s:hard-cap", periodKey, lineID),
				Severity:   alertdomain.SeverityCritical,
				Message:    fmt.Sprintf("%s exceeded allocated data by %d%%.", row.EmployeeName, int(math.Round(row.UsagePct-100))),
				LineID:     &lineID,
				EmployeeID: &employeeID,
			})
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		case row.UsagePct >= 80:
			ok, err := s.Upsert(ctx, alertdomain.UpsertRequest{
				TenantID:   tenantID,
				Key:        fmt.Sprintf("%s:line:%s:soft-cap", periodKey, lineID),
				Severity:   alertdomain.SeverityWarning,
				Message:    fmt.Sprintf("%s crossed 80%% of monthly data allocation.", row.EmployeeName),
				LineID:     &lineID,
				EmployeeID: &employeeID,
			})
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]alertdomain.Alert, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return nil, err
	}

	var alerts []alertdomain.Alert
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (s *Service) findByKey(ctx context.Context, tenantID snowflake.ID, key string) (*alertdomain.Alert, error) {
	var alert alertdomain.Alert
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND key = ?", tenantID, key).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (s *Service) reopenIfResolved(ctx context.Context, existing *alertdomain.Alert, req alertdomain.UpsertRequest) error {
	if existing.Status != alertdomain.StatusResolved {
		return nil
	}

	existing.Status = alertdomain.StatusOpen
	existing.Severity = req.Severity
	existing.Message = req.Message
	existing.UpdatedAt = s.clock.Now()
	return s.db.WithContext(ctx).Save(existing).Error
}
