package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateTenantRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Domain   string `json:"domain"`
	Provider string `json:"provider"`

	// OwnerEmail receives the owner membership on the new tenant.
	OwnerEmail string `json:"owner_email"`
}

type AddDomainRequest struct {
	Host      string `json:"host"`
	IsPrimary bool   `json:"is_primary"`
}

type AddMembershipRequest struct {
	UserEmail string `json:"user_email"`
	Role      Role   `json:"role"`
}

type Service interface {
	List(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, tenantID snowflake.ID, actorEmail string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string, actorEmail string) (*Tenant, error)
	Create(ctx context.Context, req CreateTenantRequest) (*Tenant, error)
	AddDomain(ctx context.Context, tenantID snowflake.ID, actorEmail string, req AddDomainRequest) (*TenantDomain, error)
	ListMemberships(ctx context.Context, tenantID snowflake.ID, actorEmail string) ([]Membership, error)
	AddMembership(ctx context.Context, tenantID snowflake.ID, actorEmail string, req AddMembershipRequest) (*Membership, error)
}

var (
	ErrTenantNotFound    = errors.New("tenant_not_found")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidDomain     = errors.New("invalid_domain")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrInvalidUserEmail  = errors.New("invalid_user_email")
	ErrSlugTaken         = errors.New("slug_taken")
	ErrMembershipExists  = errors.New("membership_exists")
	ErrInvalidOwnerEmail = errors.New("invalid_owner_email")
)
