package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Access accessdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	access accessdomain.Service
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("audit.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		access: p.Access,
	}
}

func (s *Service) Record(ctx context.Context, tenantID snowflake.ID, action, actor, entityType, entityID string, details map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	if entityType == "" {
		entityType = "unknown"
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		Action:     action,
		Actor:      actor,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    datatypes.JSONMap(details),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("audit append failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]auditdomain.AuditLog, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.FinanceRoles()...); err != nil {
		return nil, err
	}

	var entries []auditdomain.AuditLog
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
