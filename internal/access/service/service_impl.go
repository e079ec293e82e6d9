package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) accessdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("access.service"),
	}
}

func (s *Service) Authorize(ctx context.Context, tenantID snowflake.ID, actorEmail string, allowed ...tenantdomain.Role) (tenantdomain.Role, error) {
	actorEmail = strings.ToLower(strings.TrimSpace(actorEmail))
	if actorEmail == "" {
		return "", accessdomain.ErrTenantNotFound
	}

	var membership tenantdomain.Membership
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_email = ?", tenantID, actorEmail).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", accessdomain.ErrTenantNotFound
		}
		return "", err
	}

	if len(allowed) == 0 {
		return membership.Role, nil
	}
	for _, role := range allowed {
		if membership.Role == role {
			return membership.Role, nil
		}
	}

	s.log.Debug("role outside allowed set",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor", actorEmail),
		zap.String("role", string(membership.Role)),
	)
	return "", accessdomain.ErrForbidden
}
