package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	"github.com/tphona/fleetline/internal/clock"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	"github.com/tphona/fleetline/internal/metrics"
	"github.com/tphona/fleetline/internal/period"
	"github.com/tphona/fleetline/internal/provider"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
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
	Alerts    alertdomain.Service
	Providers *provider.Registry
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	access    accessdomain.Service
	audit     auditdomain.Service
	alerts    alertdomain.Service
	providers *provider.Registry
	metrics   *metrics.Metrics
}

func NewService(p Params) usagedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("usage.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		access:    p.Access,
		audit:     p.Audit,
		alerts:    p.Alerts,
		providers: p.Providers,
		metrics:   p.Metrics,
	}
}

func (s *Service) Sync(ctx context.Context, tenantID snowflake.ID, actorEmail string) (usagedomain.SyncResult, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail, tenantdomain.FinanceRoles()...); err != nil {
		return usagedomain.SyncResult{}, err
	}

	tenant, err := s.resolveTenant(ctx, tenantID)
	if err != nil {
		return usagedomain.SyncResult{}, err
	}
	prov, err := s.providers.Get(tenant.Provider)
	if err != nil {
		return usagedomain.SyncResult{}, err
	}

	var lines []linedomain.Line
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, linedomain.StatusActive).
		Find(&lines).Error; err != nil {
		return usagedomain.SyncResult{}, err
	}

	ingested := 0
	for _, line := range lines {
		records, err := prov.FetchUsage(ctx, line.ProviderLineID)
		if err != nil {
			return usagedomain.SyncResult{}, fmt.Errorf("%w: fetch usage: %v", providerdomain.ErrProviderFailure, err)
		}
		for _, record := range records {
			event := usagedomain.UsageEvent{
				ID:         s.genID.Generate(),
				TenantID:   tenantID,
				LineID:     line.ID,
				MbUsed:     record.MbUsed,
				Source:     usagedomain.SourceSync,
				OccurredAt: record.OccurredAt,
			}
			if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
				return usagedomain.SyncResult{}, err
			}
			ingested++
		}
	}

	if s.metrics != nil && ingested > 0 {
		s.metrics.UsageEventsIngested.WithLabelValues(tenantID.String()).Add(float64(ingested))
	}

	// Policy evaluation consumes the same snapshot the read paths serve,
	// and runs only here: alerts never move on read.
	asOf := s.clock.Now()
	summary, err := s.summarize(ctx, tenantID, asOf)
	if err != nil {
		return usagedomain.SyncResult{}, err
	}
	opened, err := s.alerts.Evaluate(ctx, tenantID, summary.Period, summary.Lines)
	if err != nil {
		return usagedomain.SyncResult{}, err
	}

	result := usagedomain.SyncResult{EventsIngested: ingested, AlertsOpened: opened}

	if err := s.audit.Record(ctx, tenantID, "usage.synced", actorEmail, "usage_sync", tenantID.String(), map[string]any{
		"events_ingested": result.EventsIngested,
		"alerts_opened":   result.AlertsOpened,
	}); err != nil {
		s.log.Warn("usage synced but audit write failed", zap.Error(err))
	}

	return result, nil
}

func (s *Service) Summary(ctx context.Context, tenantID snowflake.ID, actorEmail string, asOf time.Time) (usagedomain.Summary, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return usagedomain.Summary{}, err
	}
	return s.summarize(ctx, tenantID, asOf)
}

// summarize builds the per-line aggregation without an authorization
// check; callers gate first.
func (s *Service) summarize(ctx context.Context, tenantID snowflake.ID, asOf time.Time) (usagedomain.Summary, error) {
	var lines []linedomain.Line
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&lines).Error; err != nil {
		return usagedomain.Summary{}, err
	}

	var employees []employeedomain.Employee
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&employees).Error; err != nil {
		return usagedomain.Summary{}, err
	}
	employeeByID := make(map[snowflake.ID]employeedomain.Employee, len(employees))
	for _, employee := range employees {
		employeeByID[employee.ID] = employee
	}

	usedByLine, err := s.usedByLine(ctx, tenantID, asOf)
	if err != nil {
		return usagedomain.Summary{}, err
	}

	summaryLines := make([]usagedomain.LineUsage, 0, len(lines))
	totalUsed := int64(0)
	for _, line := range lines {
		usedMb := usedByLine[line.ID]
		totalUsed += usedMb

		entry := usagedomain.LineUsage{
			LineID:       line.ID,
			EmployeeID:   line.EmployeeID,
			EmployeeName: "Unknown employee",
			Team:         "Unknown team",
			CostCenter:   "Unknown cost center",
			Status:       line.Status,
			UsedMb:       usedMb,
			AllocatedMb:  max(1, line.DataAllocatedMb),
		}
		if employee, ok := employeeByID[line.EmployeeID]; ok {
			entry.EmployeeName = employee.Name
			entry.Team = employee.Team
			entry.CostCenter = employee.CostCenter
		}
		entry.UsagePct = float64(entry.UsedMb) / float64(entry.AllocatedMb) * 100

		summaryLines = append(summaryLines, entry)
	}

	sort.SliceStable(summaryLines, func(i, j int) bool {
		return summaryLines[i].UsedMb > summaryLines[j].UsedMb
	})

	return usagedomain.Summary{
		Period:      period.Key(asOf),
		TotalUsedMb: totalUsed,
		Lines:       summaryLines,
	}, nil
}

func (s *Service) usedByLine(ctx context.Context, tenantID snowflake.ID, asOf time.Time) (map[snowflake.ID]int64, error) {
	start, end := period.Bounds(asOf)

	var events []usagedomain.UsageEvent
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, start, end).
		Find(&events).Error; err != nil {
		return nil, err
	}

	used := make(map[snowflake.ID]int64)
	for _, event := range events {
		used[event.LineID] += event.MbUsed
	}
	return used, nil
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
