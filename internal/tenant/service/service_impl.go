package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	"github.com/tphona/fleetline/internal/provider/oneglobal"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"github.com/tphona/fleetline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Access accessdomain.Service
	Audit  auditdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	access accessdomain.Service
	audit  auditdomain.Service
}

func NewService(p Params) tenantdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("tenant.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		access: p.Access,
		audit:  p.Audit,
	}
}

// List is platform-scoped: it serves the operator surface, not tenant
// members, and is not membership-gated.
func (s *Service) List(ctx context.Context) ([]tenantdomain.Tenant, error) {
	var tenants []tenantdomain.Tenant
	err := s.db.WithContext(ctx).
		Preload("Domains").
		Order("created_at ASC").
		Find(&tenants).Error
	return tenants, err
}

func (s *Service) Get(ctx context.Context, tenantID snowflake.ID, actorEmail string) (*tenantdomain.Tenant, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return nil, err
	}
	return s.find(ctx, "id = ?", tenantID)
}

func (s *Service) GetBySlug(ctx context.Context, slugValue string, actorEmail string) (*tenantdomain.Tenant, error) {
	tenant, err := s.find(ctx, "slug = ?", strings.ToLower(strings.TrimSpace(slugValue)))
	if err != nil {
		return nil, err
	}
	// Gate after resolution, so non-members get the same not-found as a
	// missing slug.
	if _, err := s.access.Authorize(ctx, tenant.ID, actorEmail); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (*tenantdomain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tenantdomain.ErrInvalidName
	}
	ownerEmail := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if ownerEmail == "" || !strings.Contains(ownerEmail, "@") {
		return nil, tenantdomain.ErrInvalidOwnerEmail
	}

	slugValue := strings.TrimSpace(req.Slug)
	if slugValue == "" {
		slugValue = name
	}
	slugValue = slug.Make(slugValue)

	providerName := strings.TrimSpace(req.Provider)
	if providerName == "" {
		providerName = oneglobal.Name
	}

	now := s.clock.Now()
	tenant := tenantdomain.Tenant{
		ID:        s.genID.Generate(),
		Slug:      slugValue,
		Name:      name,
		Provider:  providerName,
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return tenantdomain.ErrSlugTaken
			}
			return err
		}

		if host := strings.ToLower(strings.TrimSpace(req.Domain)); host != "" {
			domain := tenantdomain.TenantDomain{
				ID:        s.genID.Generate(),
				TenantID:  tenant.ID,
				Host:      host,
				IsPrimary: true,
				CreatedAt: now,
			}
			if err := tx.Create(&domain).Error; err != nil {
				return err
			}
			tenant.Domains = []tenantdomain.TenantDomain{domain}
		}

		membership := tenantdomain.Membership{
			ID:        s.genID.Generate(),
			TenantID:  tenant.ID,
			UserEmail: ownerEmail,
			Role:      tenantdomain.RoleOwner,
			CreatedAt: now,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, tenant.ID, "tenant.created", ownerEmail, "tenant", tenant.ID.String(), map[string]any{
		"slug": tenant.Slug,
	}); err != nil {
		s.log.Warn("tenant created but audit write failed", zap.Error(err))
	}

	return &tenant, nil
}

func (s *Service) AddDomain(ctx context.Context, tenantID snowflake.ID, actorEmail string, req tenantdomain.AddDomainRequest) (*tenantdomain.TenantDomain, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.AdminRoles()...); err != nil {
		return nil, err
	}

	host := strings.ToLower(strings.TrimSpace(req.Host))
	if host == "" || strings.ContainsAny(host, " /") {
		return nil, tenantdomain.ErrInvalidDomain
	}

	domain := tenantdomain.TenantDomain{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Host:      host,
		IsPrimary: req.IsPrimary,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&domain).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.ErrInvalidDomain
		}
		return nil, err
	}

	if err := s.audit.Record(ctx, tenantID, "tenant.domain_added", actorEmail, "tenant_domain", domain.ID.String(), map[string]any{
		"host": host,
	}); err != nil {
		s.log.Warn("domain added but audit write failed", zap.Error(err))
	}

	return &domain, nil
}

func (s *Service) ListMemberships(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]tenantdomain.Membership, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.FinanceRoles()...); err != nil {
		return nil, err
	}

	var memberships []tenantdomain.Membership
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (s *Service) AddMembership(ctx context.Context, tenantID snowflake.ID, actorEmail string, req tenantdomain.AddMembershipRequest) (*tenantdomain.Membership, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.AdminRoles()...); err != nil {
		return nil, err
	}

	userEmail := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if userEmail == "" || !strings.Contains(userEmail, "@") {
		return nil, tenantdomain.ErrInvalidUserEmail
	}
	if !tenantdomain.ValidRole(req.Role) {
		return nil, tenantdomain.ErrInvalidRole
	}

	membership := tenantdomain.Membership{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		UserEmail: userEmail,
		Role:      req.Role,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.ErrMembershipExists
		}
		return nil, err
	}

	if err := s.audit.Record(ctx, tenantID, "membership.added", actorEmail, "membership", membership.ID.String(), map[string]any{
		"user_email": userEmail,
		"role":       string(req.Role),
	}); err != nil {
		s.log.Warn("membership added but audit write failed", zap.Error(err))
	}

	return &membership, nil
}

func (s *Service) find(ctx context.Context, query string, arg any) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := s.db.WithContext(ctx).
		Preload("Domains").
		Where(query, arg).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenantdomain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}
