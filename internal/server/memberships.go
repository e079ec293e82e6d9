package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
)

func (s *Server) ListMemberships(c *gin.Context) {
	memberships, err := s.tenantSvc.ListMemberships(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}

func (s *Server) AddMembership(c *gin.Context) {
	var req tenantdomain.AddMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.tenantSvc.AddMembership(c.Request.Context(), tenantID(c), actorEmail(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
