package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListAlerts(c *gin.Context) {
	alerts, err := s.alertSvc.List(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
