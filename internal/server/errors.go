package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	employeedomain "github.com/tphona/fleetline/internal/employee/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, accessdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, linedomain.ErrInvalidState):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: err.Error(),
		}
	case errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, tenantdomain.ErrMembershipExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, providerdomain.ErrProviderFailure):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: err.Error(),
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, accessdomain.ErrTenantNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, employeedomain.ErrEmployeeNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, linedomain.ErrLineNotFound),
		errors.Is(err, providerdomain.ErrUnknownProvider),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidDomain),
		errors.Is(err, tenantdomain.ErrInvalidRole),
		errors.Is(err, tenantdomain.ErrInvalidUserEmail),
		errors.Is(err, tenantdomain.ErrInvalidOwnerEmail),
		errors.Is(err, employeedomain.ErrInvalidName),
		errors.Is(err, employeedomain.ErrInvalidEmail),
		errors.Is(err, employeedomain.ErrInvalidDataCap),
		errors.Is(err, linedomain.ErrInvalidEmployee),
		errors.Is(err, linedomain.ErrInvalidPlan),
		errors.Is(err, linedomain.ErrInvalidAllocation),
		errors.Is(err, providerdomain.ErrInvalidSignature),
		errors.Is(err, providerdomain.ErrMalformedEvent),
		errors.Is(err, providerdomain.ErrUnsupportedEvent):
		return true
	default:
		return false
	}
}
