package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
)

func lineID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("lineID")))
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return id, nil
}

func (s *Server) ListLines(c *gin.Context) {
	lines, err := s.lineSvc.List(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) ProvisionLine(c *gin.Context) {
	var req linedomain.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.lineSvc.Provision(c.Request.Context(), tenantID(c), actorEmail(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) SuspendLine(c *gin.Context) {
	s.transitionLine(c, s.lineSvc.Suspend)
}

func (s *Server) ReactivateLine(c *gin.Context) {
	s.transitionLine(c, s.lineSvc.Reactivate)
}

func (s *Server) TerminateLine(c *gin.Context) {
	s.transitionLine(c, s.lineSvc.Terminate)
}

type lineTransition func(ctx context.Context, tenantID, lineID snowflake.ID, actorEmail string) (*linedomain.Line, error)

func (s *Server) transitionLine(c *gin.Context, fn lineTransition) {
	id, err := lineID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := fn(c.Request.Context(), tenantID(c), id, actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) ChangeLinePlan(c *gin.Context) {
	id, err := lineID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.lineSvc.ChangePlan(c.Request.Context(), tenantID(c), id, actorEmail(c), req.PlanID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) SetLineAllocation(c *gin.Context) {
	id, err := lineID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		DataAllocatedMb int64 `json:"data_allocated_mb"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.lineSvc.SetAllocation(c.Request.Context(), tenantID(c), id, actorEmail(c), req.DataAllocatedMb)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
