package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tphona/fleetline/internal/access"
	"github.com/tphona/fleetline/internal/alert"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	"github.com/tphona/fleetline/internal/audit"
	auditdomain "github.com/tphona/fleetline/internal/audit/domain"
	clockpkg "github.com/tphona/fleetline/internal/clock"
	"github.com/tphona/fleetline/internal/config"
	"github.com/tphona/fleetline/internal/employee"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	"github.com/tphona/fleetline/internal/line"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	"github.com/tphona/fleetline/internal/metrics"
	"github.com/tphona/fleetline/internal/plan"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	"github.com/tphona/fleetline/internal/provider"
	"github.com/tphona/fleetline/internal/spend"
	spenddomain "github.com/tphona/fleetline/internal/spend/domain"
	"github.com/tphona/fleetline/internal/tenant"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"github.com/tphona/fleetline/internal/usage"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	"github.com/tphona/fleetline/internal/webhook"
	webhookdomain "github.com/tphona/fleetline/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	access.Module,
	audit.Module,
	tenant.Module,
	employee.Module,
	plan.Module,
	line.Module,
	usage.Module,
	alert.Module,
	spend.Module,
	webhook.Module,
	provider.Module,
	metrics.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	clock       clockpkg.Clock
	providers   *provider.Registry
	tenantSvc   tenantdomain.Service
	employeeSvc employeedomain.Service
	planSvc     plandomain.Service
	lineSvc     linedomain.Service
	usageSvc    usagedomain.Service
	alertSvc    alertdomain.Service
	spendSvc    spenddomain.Service
	webhookSvc  webhookdomain.Service
	auditSvc    auditdomain.Service
}

type Params struct {
	fx.In

	Engine      *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Clock       clockpkg.Clock
	Providers   *provider.Registry
	TenantSvc   tenantdomain.Service
	EmployeeSvc employeedomain.Service
	PlanSvc     plandomain.Service
	LineSvc     linedomain.Service
	UsageSvc    usagedomain.Service
	AlertSvc    alertdomain.Service
	SpendSvc    spenddomain.Service
	WebhookSvc  webhookdomain.Service
	AuditSvc    auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:      p.Engine,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		clock:       p.Clock,
		providers:   p.Providers,
		tenantSvc:   p.TenantSvc,
		employeeSvc: p.EmployeeSvc,
		planSvc:     p.PlanSvc,
		lineSvc:     p.LineSvc,
		usageSvc:    p.UsageSvc,
		alertSvc:    p.AlertSvc,
		spendSvc:    p.SpendSvc,
		webhookSvc:  p.WebhookSvc,
		auditSvc:    p.AuditSvc,
	}
}

func registerRoutes(s *Server) {
	s.engine.POST("/providers/:provider/webhook", s.HandleProviderWebhook)

	api := s.engine.Group("/api", s.ActorRequired())
	api.GET("/tenants", s.ListTenants)
	api.POST("/tenants", s.CreateTenant)

	scoped := api.Group("/tenants/:tenantID", TenantContext())
	scoped.GET("", s.GetTenant)
	scoped.POST("/domains", s.AddTenantDomain)
	scoped.GET("/memberships", s.ListMemberships)
	scoped.POST("/memberships", s.AddMembership)
	scoped.GET("/employees", s.ListEmployees)
	scoped.POST("/employees", s.CreateEmployee)
	scoped.GET("/plans", s.ListPlans)
	scoped.GET("/lines", s.ListLines)
	scoped.POST("/lines/provision", s.ProvisionLine)
	scoped.POST("/lines/:lineID/suspend", s.SuspendLine)
	scoped.POST("/lines/:lineID/reactivate", s.ReactivateLine)
	scoped.POST("/lines/:lineID/terminate", s.TerminateLine)
	scoped.PUT("/lines/:lineID/plan", s.ChangeLinePlan)
	scoped.PUT("/lines/:lineID/allocation", s.SetLineAllocation)
	scoped.POST("/usage/sync", s.SyncUsage)
	scoped.GET("/usage", s.GetUsageSummary)
	scoped.GET("/spend", s.GetSpendSummary)
	scoped.GET("/alerts", s.ListAlerts)
	scoped.GET("/audit-logs", s.ListAuditLogs)
	scoped.GET("/dashboard", s.GetDashboardStats)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			s.log.Info("http server started", zap.String("addr", s.cfg.ListenAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
