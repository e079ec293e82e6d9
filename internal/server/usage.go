package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// periodAsOf resolves the optional period query parameter ("2006-01")
// into a point in time inside that period. Absent, the current period.
func (s *Server) periodAsOf(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("period"))
	if raw == "" {
		return s.clock.Now(), nil
	}

	asOf, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, ErrInvalidRequest
	}
	return asOf, nil
}

func (s *Server) SyncUsage(c *gin.Context) {
	result, err := s.usageSvc.Sync(c.Request.Context(), tenantID(c), actorEmail(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) GetUsageSummary(c *gin.Context) {
	asOf, err := s.periodAsOf(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.usageSvc.Summary(c.Request.Context(), tenantID(c), actorEmail(c), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
