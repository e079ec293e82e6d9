package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Access accessdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	access accessdomain.Service
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("plan.service"),
		access: p.Access,
	}
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]plandomain.Plan, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return nil, err
	}

	var plans []plandomain.Plan
	err := s.db.WithContext(ctx).
		Where("tenant_id IS NULL OR tenant_id = ?", tenantID).
		Order("monthly_price_usd ASC").
		Find(&plans).Error
	return plans, err
}
