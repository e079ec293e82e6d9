package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	accessservice "github.com/tphona/fleetline/internal/access/service"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	alertservice "github.com/tphona/fleetline/internal/alert/service"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	auditservice "github.com/tphona/fleetline/internal/audit/service"
	"github.com/tphona/fleetline/internal/clock"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	"github.com/tphona/fleetline/internal/provider"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type usageProviderStub struct {
	records  []providerdomain.UsageRecord
	fetchErr error
}

func (s *usageProviderStub) IssueEsim(ctx context.Context, req providerdomain.IssueEsimRequest) (providerdomain.IssueEsimResult, error) {
	return providerdomain.IssueEsimResult{}, nil
}

func (s *usageProviderStub) AssignPlan(ctx context.Context, providerLineID, planExternalID string) error {
	return nil
}

func (s *usageProviderStub) ChangePlan(ctx context.Context, providerLineID, planExternalID string) error {
	return nil
}

func (s *usageProviderStub) SuspendLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (s *usageProviderStub) ReactivateLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (s *usageProviderStub) TerminateLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (s *usageProviderStub) FetchUsage(ctx context.Context, providerLineID string) ([]providerdomain.UsageRecord, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.records, nil
}

func (s *usageProviderStub) VerifyWebhook(signature string, payload []byte) (providerdomain.WebhookEvent, error) {
	return providerdomain.WebhookEvent{}, providerdomain.ErrMalformedEvent
}

type usageFixture struct {
	svc      usagedomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	stub     *usageProviderStub
	tenantID snowflake.ID
	employee employeedomain.Employee
}

func setupUsageService(t *testing.T) *usageFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.Membership{},
		&employeedomain.Employee{},
		&plandomain.Plan{},
		&linedomain.Line{},
		&usagedomain.UsageEvent{},
		&alertdomain.Alert{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fixedClock := clock.NewFakeClock(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC))

	stub := &usageProviderStub{}
	registry := provider.NewRegistry()
	registry.Register("fake", stub)

	access := accessservice.NewService(accessservice.Params{DB: gdb, Log: zap.NewNop()})
	audit := auditservice.NewService(auditservice.Params{
		DB: gdb, Log: zap.NewNop(), GenID: node, Clock: fixedClock, Access: access,
	})
	alerts := alertservice.NewService(alertservice.Params{
		DB: gdb, Log: zap.NewNop(), GenID: node, Clock: fixedClock, Access: access,
	})

	tenantID := node.Generate()
	require.NoError(t, gdb.Create(&tenantdomain.Tenant{
		ID: tenantID, Slug: "acme", Name: "Acme", Provider: "fake", CreatedAt: fixedClock.Now(),
	}).Error)
	require.NoError(t, gdb.Create(&tenantdomain.Membership{
		ID: node.Generate(), TenantID: tenantID, UserEmail: "finance@acme.example",
		Role: tenantdomain.RoleFinance, CreatedAt: fixedClock.Now(),
	}).Error)
	require.NoError(t, gdb.Create(&tenantdomain.Membership{
		ID: node.Generate(), TenantID: tenantID, UserEmail: "manager@acme.example",
		Role: tenantdomain.RoleManager, CreatedAt: fixedClock.Now(),
	}).Error)

	employee := employeedomain.Employee{
		ID: node.Generate(), TenantID: tenantID, Name: "Jordan Smith",
		Email: "jordan@acme.example", Team: "Engineering", CostCenter: "CC-100",
		MonthlyDataCapMb: 10240, IsActive: true, CreatedAt: fixedClock.Now(),
	}
	require.NoError(t, gdb.Create(&employee).Error)

	svc := NewService(Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fixedClock,
		Access:    access,
		Audit:     audit,
		Alerts:    alerts,
		Providers: registry,
	})

	return &usageFixture{
		svc: svc, db: gdb, node: node, clock: fixedClock, stub: stub,
		tenantID: tenantID, employee: employee,
	}
}

func (f *usageFixture) createLine(t *testing.T, status linedomain.LineStatus, allocatedMb int64) linedomain.Line {
	t.Helper()
	line := linedomain.Line{
		ID:              f.node.Generate(),
		TenantID:        f.tenantID,
		EmployeeID:      f.employee.ID,
		Provider:        "fake",
		ProviderLineID:  fmt.Sprintf("fake-line-%s", f.node.Generate()),
		ICCID:           "8988210000000000001",
		ActivationCode:  "LPA:1$fake$code",
		Status:          status,
		PlanID:          f.node.Generate(),
		DataAllocatedMb: allocatedMb,
		MonthlyPriceUsd: 52,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&line).Error)
	return line
}

func (f *usageFixture) addEvent(t *testing.T, lineID snowflake.ID, mb int64, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&usagedomain.UsageEvent{
		ID: f.node.Generate(), TenantID: f.tenantID, LineID: lineID,
		MbUsed: mb, Source: usagedomain.SourceSync, OccurredAt: at,
	}).Error)
}

func TestSyncIngestsOnlyActiveLines(t *testing.T) {
	f := setupUsageService(t)
	f.createLine(t, linedomain.StatusActive, 10240)
	f.createLine(t, linedomain.StatusActive, 10240)
	f.createLine(t, linedomain.StatusSuspended, 10240)
	f.stub.records = []providerdomain.UsageRecord{{MbUsed: 100, OccurredAt: f.clock.Now()}}

	result, err := f.svc.Sync(context.Background(), f.tenantID, "finance@acme.example")
	require.NoError(t, err)
	assert.Equal(t, 2, result.EventsIngested)

	var count int64
	require.NoError(t, f.db.Model(&usagedomain.UsageEvent{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSyncRequiresFinanceRole(t *testing.T) {
	f := setupUsageService(t)

	_, err := f.svc.Sync(context.Background(), f.tenantID, "manager@acme.example")
	assert.ErrorIs(t, err, accessdomain.ErrForbidden)
}

func TestSummaryIncludesEveryLineOnce(t *testing.T) {
	f := setupUsageService(t)
	active := f.createLine(t, linedomain.StatusActive, 10240)
	suspended := f.createLine(t, linedomain.StatusSuspended, 5120)
	terminated := f.createLine(t, linedomain.StatusTerminated, 2048)
	f.addEvent(t, active.ID, 1280, f.clock.Now())

	summary, err := f.svc.Summary(context.Background(), f.tenantID, "manager@acme.example", f.clock.Now())
	require.NoError(t, err)

	assert.Equal(t, "2025-05", summary.Period)
	assert.EqualValues(t, 1280, summary.TotalUsedMb)
	require.Len(t, summary.Lines, 3)

	// Descending by usage, zero-usage and terminated lines still listed.
	assert.Equal(t, active.ID, summary.Lines[0].LineID)
	assert.EqualValues(t, 1280, summary.Lines[0].UsedMb)
	seen := map[snowflake.ID]bool{}
	for _, row := range summary.Lines {
		seen[row.LineID] = true
	}
	assert.True(t, seen[suspended.ID])
	assert.True(t, seen[terminated.ID])
}

func TestSummaryJoinsEmployeeDetails(t *testing.T) {
	f := setupUsageService(t)
	line := f.createLine(t, linedomain.StatusActive, 10240)
	f.addEvent(t, line.ID, 500, f.clock.Now())

	summary, err := f.svc.Summary(context.Background(), f.tenantID, "manager@acme.example", f.clock.Now())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "Jordan Smith", summary.Lines[0].EmployeeName)
	assert.Equal(t, "Engineering", summary.Lines[0].Team)
	assert.Equal(t, "CC-100", summary.Lines[0].CostCenter)
	assert.InDelta(t, float64(500)/10240*100, summary.Lines[0].UsagePct, 0.0001)
}

func TestSummaryFiltersByPeriod(t *testing.T) {
	f := setupUsageService(t)
	line := f.createLine(t, linedomain.StatusActive, 10240)
	f.addEvent(t, line.ID, 700, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	f.addEvent(t, line.ID, 900, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC))

	may, err := f.svc.Summary(context.Background(), f.tenantID, "manager@acme.example", f.clock.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 700, may.TotalUsedMb)

	april, err := f.svc.Summary(context.Background(), f.tenantID, "manager@acme.example", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-04", april.Period)
	assert.EqualValues(t, 900, april.TotalUsedMb)
}

func TestSyncOpensAlertsOnce(t *testing.T) {
	f := setupUsageService(t)
	f.createLine(t, linedomain.StatusActive, 10000)
	f.stub.records = []providerdomain.UsageRecord{{MbUsed: 8200, OccurredAt: f.clock.Now()}}

	first, err := f.svc.Sync(context.Background(), f.tenantID, "finance@acme.example")
	require.NoError(t, err)
	assert.Equal(t, 1, first.EventsIngested)
	assert.Equal(t, 1, first.AlertsOpened)

	// A second sync with nothing new re-evaluates but opens nothing.
	f.stub.records = nil
	second, err := f.svc.Sync(context.Background(), f.tenantID, "finance@acme.example")
	require.NoError(t, err)
	assert.Equal(t, 0, second.EventsIngested)
	assert.Equal(t, 0, second.AlertsOpened)

	var count int64
	require.NoError(t, f.db.Model(&alertdomain.Alert{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncProviderFailureIngestsNothing(t *testing.T) {
	f := setupUsageService(t)
	f.createLine(t, linedomain.StatusActive, 10240)
	f.stub.fetchErr = fmt.Errorf("carrier timeout")

	_, err := f.svc.Sync(context.Background(), f.tenantID, "finance@acme.example")
	require.ErrorIs(t, err, providerdomain.ErrProviderFailure)

	var count int64
	require.NoError(t, f.db.Model(&usagedomain.UsageEvent{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
