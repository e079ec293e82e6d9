package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	"github.com/tphona/fleetline/internal/provider"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Access    accessdomain.Service
	Audit     auditdomain.Service
	Providers *provider.Registry
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	access    accessdomain.Service
	audit     auditdomain.Service
	providers *provider.Registry
}

func NewService(p Params) linedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("line.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		access:    p.Access,
		audit:     p.Audit,
		providers: p.Providers,
	}
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]linedomain.Line, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return nil, err
	}

	var lines []linedomain.Line
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&lines).Error
	return lines, err
}

func (s *Service) Provision(ctx context.Context, tenantID snowflake.ID, actorEmail string, req linedomain.ProvisionRequest) (*linedomain.Line, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.WriteRoles()...); err != nil {
		return nil, err
	}

	tenant, err := s.resolveTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	employeeID, err := snowflake.ParseString(req.EmployeeID)
	if err != nil {
		return nil, linedomain.ErrInvalidEmployee
	}
	employee, err := s.resolveEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	planID, err := snowflake.ParseString(req.PlanID)
	if err != nil {
		return nil, linedomain.ErrInvalidPlan
	}
	plan, err := s.resolvePlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	esim, err := s.issueAndAssign(ctx, tenant, employee, plan)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	line := linedomain.Line{
		ID:              s.genID.Generate(),
		TenantID:        tenantID,
		EmployeeID:      employee.ID,
		Provider:        tenant.Provider,
		ProviderLineID:  esim.ProviderLineID,
		ICCID:           esim.ICCID,
		ActivationCode:  esim.ActivationCode,
		Status:          linedomain.StatusActive,
		PlanID:          plan.ID,
		DataAllocatedMb: plan.IncludedDataMb,
		MonthlyPriceUsd: plan.MonthlyPriceUsd,
		RoamingEnabled:  plan.RoamingEnabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, "line.provisioned", actorEmail, line.ID, map[string]any{
		"employee_id":      employee.ID.String(),
		"plan_id":          plan.ID.String(),
		"provider_line_id": line.ProviderLineID,
	})

	return &line, nil
}

func (s *Service) Suspend(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*linedomain.Line, error) {
	return s.transition(ctx, tenantID, lineID, actorEmail, linedomain.StatusSuspended,
		[]linedomain.LineStatus{linedomain.StatusActive, linedomain.StatusProvisioning},
		func(ctx context.Context, p providerdomain.Provider, providerLineID string) error {
			return p.SuspendLine(ctx, providerLineID)
		})
}

func (s *Service) Reactivate(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*linedomain.Line, error) {
	return s.transition(ctx, tenantID, lineID, actorEmail, linedomain.StatusActive,
		[]linedomain.LineStatus{linedomain.StatusSuspended},
		func(ctx context.Context, p providerdomain.Provider, providerLineID string) error {
			return p.ReactivateLine(ctx, providerLineID)
		})
}

func (s *Service) Terminate(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*linedomain.Line, error) {
	return s.transition(ctx, tenantID, lineID, actorEmail, linedomain.StatusTerminated,
		[]linedomain.LineStatus{linedomain.StatusProvisioning, linedomain.StatusActive, linedomain.StatusSuspended},
		func(ctx context.Context, p providerdomain.Provider, providerLineID string) error {
			return p.TerminateLine(ctx, providerLineID)
		})
}

func (s *Service) ChangePlan(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string, planIDRaw string) (*linedomain.Line, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.WriteRoles()...); err != nil {
		return nil, err
	}

	line, err := s.resolveLine(ctx, tenantID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Status != linedomain.StatusActive && line.Status != linedomain.StatusSuspended {
		return nil, fmt.Errorf("%w: cannot change plan on %s line", linedomain.ErrInvalidState, line.Status)
	}

	planID, err := snowflake.ParseString(planIDRaw)
	if err != nil {
		return nil, linedomain.ErrInvalidPlan
	}
	plan, err := s.resolvePlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	prov, err := s.providers.Get(line.Provider)
	if err != nil {
		return nil, err
	}
	if err := prov.ChangePlan(ctx, line.ProviderLineID, plan.ID.String()); err != nil {
		return nil, fmt.Errorf("%w: change plan: %v", providerdomain.ErrProviderFailure, err)
	}

	line.PlanID = plan.ID
	line.DataAllocatedMb = plan.IncludedDataMb
	line.MonthlyPriceUsd = plan.MonthlyPriceUsd
	line.RoamingEnabled = plan.RoamingEnabled
	line.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(line).Error; err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, "line.plan_changed", actorEmail, line.ID, map[string]any{
		"plan_id": plan.ID.String(),
	})

	return line, nil
}

func (s *Service) SetAllocation(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string, dataAllocatedMb int64) (*linedomain.Line, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.WriteRoles()...); err != nil {
		return nil, err
	}
	if dataAllocatedMb < 0 {
		return nil, linedomain.ErrInvalidAllocation
	}

	line, err := s.resolveLine(ctx, tenantID, lineID)
	if err != nil {
		return nil, err
	}

	// Manual override, no provider round-trip.
	line.DataAllocatedMb = dataAllocatedMb
	line.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(line).Error; err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, "line.allocation_updated", actorEmail, line.ID, map[string]any{
		"data_allocated_mb": dataAllocatedMb,
	})

	return line, nil
}

type providerCall func(ctx context.Context, p providerdomain.Provider, providerLineID string) error

// transition runs one lifecycle step: authorize, check the source state,
// call the provider, then persist. Provider failure aborts before any
// write.
func (s *Service) transition(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string, target linedomain.LineStatus, from []linedomain.LineStatus, call providerCall) (*linedomain.Line, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.WriteRoles()...); err != nil {
		return nil, err
	}

	line, err := s.resolveLine(ctx, tenantID, lineID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, status := range from {
		if line.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", linedomain.ErrInvalidState, line.Status, target)
	}

	prov, err := s.providers.Get(line.Provider)
	if err != nil {
		return nil, err
	}
	if err := call(ctx, prov, line.ProviderLineID); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", providerdomain.ErrProviderFailure, target, err)
	}

	line.Status = target
	line.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(line).Error; err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, "line.status_changed", actorEmail, line.ID, map[string]any{
		"status": string(target),
	})

	return line, nil
}

func (s *Service) issueAndAssign(ctx context.Context, tenant *tenantdomain.Tenant, employee *employeedomain.Employee, plan *plandomain.Plan) (providerdomain.IssueEsimResult, error) {
	prov, err := s.providers.Get(tenant.Provider)
	if err != nil {
		return providerdomain.IssueEsimResult{}, err
	}

	esim, err := prov.IssueEsim(ctx, providerdomain.IssueEsimRequest{
		TenantID:   tenant.ID.String(),
		EmployeeID: employee.ID.String(),
	})
	if err != nil {
		return providerdomain.IssueEsimResult{}, fmt.Errorf("%w: issue esim: %v", providerdomain.ErrProviderFailure, err)
	}
	if err := prov.AssignPlan(ctx, esim.ProviderLineID, plan.ID.String()); err != nil {
		return providerdomain.IssueEsimResult{}, fmt.Errorf("%w: assign plan: %v", providerdomain.ErrProviderFailure, err)
	}
	return esim, nil
}

func (s *Service) resolveTenant(ctx context.Context, tenantID snowflake.ID) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := s.db.WithContext(ctx).Where("id = ?", tenantID).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accessdomain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *Service) resolveEmployee(ctx context.Context, tenantID, employeeID snowflake.ID) (*employeedomain.Employee, error) {
	var employee employeedomain.Employee
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, employeeID).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeedomain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &employee, nil
}

func (s *Service) resolvePlan(ctx context.Context, tenantID, planID snowflake.ID) (*plandomain.Plan, error) {
	var plan plandomain.Plan
	err := s.db.WithContext(ctx).
		Where("id = ? AND (tenant_id IS NULL OR tenant_id = ?)", planID, tenantID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, plandomain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *Service) resolveLine(ctx context.Context, tenantID, lineID snowflake.ID) (*linedomain.Line, error) {
	var line linedomain.Line
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, lineID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, linedomain.ErrLineNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (s *Service) recordAudit(ctx context.Context, tenantID snowflake.ID, action, actor string, lineID snowflake.ID, details map[string]any) {
	if err := s.audit.Record(ctx, tenantID, action, actor, "line", lineID.String(), details); err != nil {
		s.log.Warn("line mutation persisted but audit write failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
