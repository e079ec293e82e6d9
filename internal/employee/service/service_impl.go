package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
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

func NewService(p Params) employeedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("employee.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		access: p.Access,
		audit:  p.Audit,
	}
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]employeedomain.Employee, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return nil, err
	}

	var employees []employeedomain.Employee
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&employees).Error
	return employees, err
}

func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, actorEmail string, req employeedomain.CreateEmployeeRequest) (*employeedomain.Employee, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.WriteRoles()...); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, employeedomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, employeedomain.ErrInvalidEmail
	}
	if req.MonthlyDataCapMb < 0 {
		return nil, employeedomain.ErrInvalidDataCap
	}

	employee := employeedomain.Employee{
		ID:               s.genID.Generate(),
		TenantID:         tenantID,
		Name:             name,
		Email:            email,
		Team:             strings.TrimSpace(req.Team),
		CostCenter:       strings.TrimSpace(req.CostCenter),
		MonthlyDataCapMb: req.MonthlyDataCapMb,
		IsActive:         true,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, tenantID, "employee.created", actorEmail, "employee", employee.ID.String(), map[string]any{
		"email": employee.Email,
		"team":  employee.Team,
	}); err != nil {
		s.log.Warn("employee created but audit write failed", zap.Error(err))
	}

	return &employee, nil
}
