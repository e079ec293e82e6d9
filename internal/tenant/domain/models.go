// Package domain contains tenant, domain, and membership models. The
// tenant is the unit of data partitioning: every other row in the system
// is reachable only through its owning tenant id.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleFinance Role = "finance"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// ValidRole reports whether r is one of the five supported roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleFinance, RoleManager, RoleViewer:
		return true
	}
	return false
}

// WriteRoles may provision lines, change plans, and manage employees.
func WriteRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager}
}

// FinanceRoles may trigger usage syncs and read audit logs.
func FinanceRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleFinance}
}

// AdminRoles may manage memberships.
func AdminRoles() []Role {
	return []Role{RoleOwner, RoleAdmin}
}

// AllRoles is the default read set.
func AllRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleFinance, RoleManager, RoleViewer}
}

type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Provider  string       `gorm:"type:text;not null" json:"provider"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`

	Domains []TenantDomain `gorm:"foreignKey:TenantID" json:"domains,omitempty"`
}

func (Tenant) TableName() string { return "tenants" }

type TenantDomain struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Host      string       `gorm:"type:text;not null;uniqueIndex" json:"host"`
	IsPrimary bool         `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (TenantDomain) TableName() string { return "tenant_domains" }

// Membership grants a user a role within one tenant. No membership means
// the tenant is invisible to that user.
type Membership struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;uniqueIndex:idx_memberships_tenant_user" json:"tenant_id"`
	UserEmail string       `gorm:"type:text;not null;uniqueIndex:idx_memberships_tenant_user" json:"user_email"`
	Role      Role         `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Membership) TableName() string { return "memberships" }
