package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	logs, err := s.auditSvc.List(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
