package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
)

func (s *Server) ListEmployees(c *gin.Context) {
	employees, err := s.employeeSvc.List(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var req employeedomain.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.employeeSvc.Create(c.Request.Context(), tenantID(c), actorEmail(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
