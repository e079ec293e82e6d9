package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
)

func (s *Server) ListTenants(c *gin.Context) {
	tenants, err := s.tenantSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) CreateTenant(c *gin.Context) {
	var req tenantdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.OwnerEmail == "" {
		req.OwnerEmail = actorEmail(c)
	}

	created, err := s.tenantSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetTenant(c *gin.Context) {
	found, err := s.tenantSvc.Get(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (s *Server) AddTenantDomain(c *gin.Context) {
	var req tenantdomain.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.tenantSvc.AddDomain(c.Request.Context(), tenantID(c), actorEmail(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

