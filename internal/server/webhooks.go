package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const headerWebhookSignature = "X-Webhook-Signature"

// HandleProviderWebhook sits outside actor authentication: the caller is
// the provider itself, authenticated by signature.
func (s *Server) HandleProviderWebhook(c *gin.Context) {
	providerName := strings.TrimSpace(c.Param("provider"))

	p, err := s.providers.Get(providerName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	event, err := p.VerifyWebhook(c.GetHeader(headerWebhookSignature), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.webhookSvc.Ingest(c.Request.Context(), providerName, event)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("webhook processed",
		zap.String("provider", providerName),
		zap.String("event_id", event.ID),
		zap.Bool("accepted", result.Accepted),
	)

	c.JSON(http.StatusOK, result)
}
