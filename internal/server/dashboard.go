package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/tphona/fleetline/internal/alert/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
)

type dashboardStats struct {
	Period          string  `json:"period"`
	EmployeeCount   int     `json:"employee_count"`
	ActiveLines     int     `json:"active_lines"`
	SuspendedLines  int     `json:"suspended_lines"`
	TerminatedLines int     `json:"terminated_lines"`
	OpenAlerts      int     `json:"open_alerts"`
	TotalUsedMb     int64   `json:"total_used_mb"`
	TotalCostUsd    float64 `json:"total_cost_usd"`
}

func (s *Server) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantID(c)
	actor := actorEmail(c)

	employees, err := s.employeeSvc.List(ctx, tenant, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	lines, err := s.lineSvc.List(ctx, tenant, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	alerts, err := s.alertSvc.List(ctx, tenant, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	spendSummary, err := s.spendSvc.Summary(ctx, tenant, actor, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	usageSummary, err := s.usageSvc.Summary(ctx, tenant, actor, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats := dashboardStats{
		Period:        usageSummary.Period,
		EmployeeCount: len(employees),
		TotalUsedMb:   usageSummary.TotalUsedMb,
		TotalCostUsd:  spendSummary.TotalCostUsd,
	}
	for _, l := range lines {
		switch l.Status {
		case linedomain.StatusActive:
			stats.ActiveLines++
		case linedomain.StatusSuspended:
			stats.SuspendedLines++
		case linedomain.StatusTerminated:
			stats.TerminatedLines++
		}
	}
	for _, a := range alerts {
		if a.Status == alertdomain.StatusOpen {
			stats.OpenAlerts++
		}
	}

	c.JSON(http.StatusOK, stats)
}
