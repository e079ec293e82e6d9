// Package domain defines the access gate: membership-based authorization
// for every operation that touches tenant data.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
)

type Service interface {
	// Authorize resolves the actor's membership in the tenant and checks
	// it against the allowed role set (empty set means any role).
	// A missing membership yields ErrTenantNotFound, never ErrForbidden:
	// non-members must not be able to tell a tenant exists.
	Authorize(ctx context.Context, tenantID snowflake.ID, actorEmail string, allowed ...tenantdomain.Role) (tenantdomain.Role, error)
}

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrForbidden      = errors.New("forbidden")
)
