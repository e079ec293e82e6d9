package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accessservice "github.com/tphona/fleetline/internal/access/service"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	alertservice "github.com/tphona/fleetline/internal/alert/service"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	auditservice "github.com/tphona/fleetline/internal/audit/service"
	"github.com/tphona/fleetline/internal/clock"
	"github.com/tphona/fleetline/internal/config"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	employeeservice "github.com/tphona/fleetline/internal/employee/service"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	lineservice "github.com/tphona/fleetline/internal/line/service"
	"github.com/tphona/fleetline/internal/metrics"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	planservice "github.com/tphona/fleetline/internal/plan/service"
	"github.com/tphona/fleetline/internal/provider"
	"github.com/tphona/fleetline/internal/provider/oneglobal"
	spendservice "github.com/tphona/fleetline/internal/spend/service"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	tenantservice "github.com/tphona/fleetline/internal/tenant/service"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	usageservice "github.com/tphona/fleetline/internal/usage/service"
	webhookdomain "github.com/tphona/fleetline/internal/webhook/domain"
	webhookservice "github.com/tphona/fleetline/internal/webhook/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "test-secret"

type serverFixture struct {
	engine   *gin.Engine
	db       *gorm.DB
	node     *snowflake.Node
	tenantID snowflake.ID
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.TenantDomain{},
		&tenantdomain.Membership{},
		&employeedomain.Employee{},
		&plandomain.Plan{},
		&linedomain.Line{},
		&usagedomain.UsageEvent{},
		&alertdomain.Alert{},
		&auditdomain.AuditLog{},
		&webhookdomain.Receipt{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fixedClock := clock.NewFakeClock(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC))

	registry := provider.NewRegistry()
	registry.Register(oneglobal.Name, oneglobal.New(webhookSecret))

	log := zap.NewNop()
	access := accessservice.NewService(accessservice.Params{DB: gdb, Log: log})
	audit := auditservice.NewService(auditservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock, Access: access,
	})
	alerts := alertservice.NewService(alertservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock, Access: access,
	})
	tenants := tenantservice.NewService(tenantservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock, Access: access, Audit: audit,
	})
	employees := employeeservice.NewService(employeeservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock, Access: access, Audit: audit,
	})
	plans := planservice.NewService(planservice.Params{DB: gdb, Log: log, Access: access})
	lines := lineservice.NewService(lineservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock,
		Access: access, Audit: audit, Providers: registry,
	})
	usage := usageservice.NewService(usageservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock,
		Access: access, Audit: audit, Alerts: alerts, Providers: registry,
	})
	spend := spendservice.NewService(spendservice.Params{
		DB: gdb, Log: log, Access: access, Usage: usage,
	})
	webhooks := webhookservice.NewService(webhookservice.Params{
		DB: gdb, Log: log, GenID: node, Clock: fixedClock, Audit: audit, Alerts: alerts,
	})

	engine := NewEngine(metrics.NewRegistry())
	srv := NewServer(Params{
		Engine:      engine,
		Cfg:         config.Config{ListenAddr: ":0"},
		Log:         log,
		Clock:       fixedClock,
		Providers:   registry,
		TenantSvc:   tenants,
		EmployeeSvc: employees,
		PlanSvc:     plans,
		LineSvc:     lines,
		UsageSvc:    usage,
		AlertSvc:    alerts,
		SpendSvc:    spend,
		WebhookSvc:  webhooks,
		AuditSvc:    audit,
	})
	registerRoutes(srv)

	tenantID := node.Generate()
	require.NoError(t, gdb.Create(&tenantdomain.Tenant{
		ID: tenantID, Slug: "acme", Name: "Acme", Provider: oneglobal.Name, CreatedAt: fixedClock.Now(),
	}).Error)
	require.NoError(t, gdb.Create(&tenantdomain.Membership{
		ID: node.Generate(), TenantID: tenantID, UserEmail: "owner@acme.example",
		Role: tenantdomain.RoleOwner, CreatedAt: fixedClock.Now(),
	}).Error)

	return &serverFixture{engine: engine, db: gdb, node: node, tenantID: tenantID}
}

func (f *serverFixture) request(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(headerUserEmail, actor)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestRequestsWithoutActorRejected(t *testing.T) {
	f := setupServer(t)

	rec := f.request(t, http.MethodGet, "/api/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantHiddenFromNonMembers(t *testing.T) {
	f := setupServer(t)

	rec := f.request(t, http.MethodGet, fmt.Sprintf("/api/tenants/%s", f.tenantID), "stranger@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.request(t, http.MethodGet, fmt.Sprintf("/api/tenants/%s", f.tenantID), "owner@acme.example", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvisionAndLifecycleOverHTTP(t *testing.T) {
	f := setupServer(t)

	employeeRec := f.request(t, http.MethodPost, fmt.Sprintf("/api/tenants/%s/employees", f.tenantID), "owner@acme.example", map[string]any{
		"name":                "Jordan Smith",
		"email":               "jordan@acme.example",
		"team":                "Engineering",
		"cost_center":         "CC-100",
		"monthly_data_cap_mb": 10240,
	})
	require.Equal(t, http.StatusCreated, employeeRec.Code)
	var employee employeedomain.Employee
	require.NoError(t, json.Unmarshal(employeeRec.Body.Bytes(), &employee))

	plan := plandomain.Plan{
		ID: f.node.Generate(), Name: "Growth 10GB", IncludedDataMb: 10240,
		MonthlyPriceUsd: 52, OverageUsdPerMb: 0.018,
	}
	require.NoError(t, f.db.Create(&plan).Error)

	provisionRec := f.request(t, http.MethodPost, fmt.Sprintf("/api/tenants/%s/lines/provision", f.tenantID), "owner@acme.example", map[string]any{
		"employee_id": employee.ID.String(),
		"plan_id":     plan.ID.String(),
	})
	require.Equal(t, http.StatusCreated, provisionRec.Code)
	var line linedomain.Line
	require.NoError(t, json.Unmarshal(provisionRec.Body.Bytes(), &line))
	assert.Equal(t, linedomain.StatusActive, line.Status)

	suspendRec := f.request(t, http.MethodPost, fmt.Sprintf("/api/tenants/%s/lines/%s/suspend", f.tenantID, line.ID), "owner@acme.example", nil)
	assert.Equal(t, http.StatusOK, suspendRec.Code)

	// Suspending again conflicts with the current state.
	conflictRec := f.request(t, http.MethodPost, fmt.Sprintf("/api/tenants/%s/lines/%s/suspend", f.tenantID, line.ID), "owner@acme.example", nil)
	assert.Equal(t, http.StatusConflict, conflictRec.Code)
}

func TestUsageSummaryOverHTTP(t *testing.T) {
	f := setupServer(t)

	rec := f.request(t, http.MethodGet, fmt.Sprintf("/api/tenants/%s/usage", f.tenantID), "owner@acme.example", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary usagedomain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "2025-05", summary.Period)

	badPeriod := f.request(t, http.MethodGet, fmt.Sprintf("/api/tenants/%s/usage?period=May-2025", f.tenantID), "owner@acme.example", nil)
	assert.Equal(t, http.StatusBadRequest, badPeriod.Code)
}

func TestWebhookSignatureEnforced(t *testing.T) {
	f := setupServer(t)
	payload := `{"id":"evt-1","type":"line_suspended","providerLineId":"1g-line-1","timestamp":"2025-05-15T12:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/providers/1global/webhook", bytes.NewBufferString(payload))
	req.Header.Set(headerWebhookSignature, "wrong")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/providers/1global/webhook", bytes.NewBufferString(payload))
	req.Header.Set(headerWebhookSignature, webhookSecret)
	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result webhookdomain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Accepted)
	assert.Equal(t, webhookdomain.ReasonLineNotFound, result.Reason)
}

func TestWebhookUnknownProvider(t *testing.T) {
	f := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/providers/nosuch/webhook", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := setupServer(t)

	rec := f.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
