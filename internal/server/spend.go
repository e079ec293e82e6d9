package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetSpendSummary(c *gin.Context) {
	asOf, err := s.periodAsOf(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.spendSvc.Summary(c.Request.Context(), tenantID(c), actorEmail(c), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
