package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	tenantdomain "github.com/tphona/fleetline/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAccessService(t *testing.T) (accessdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&tenantdomain.Membership{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{DB: gdb, Log: zap.NewNop()})
	return svc, gdb, node
}

func grantMembership(t *testing.T, gdb *gorm.DB, node *snowflake.Node, tenantID snowflake.ID, email string, role tenantdomain.Role) {
	t.Helper()
	require.NoError(t, gdb.Create(&tenantdomain.Membership{
		ID:        node.Generate(),
		TenantID:  tenantID,
		UserEmail: email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}).Error)
}

func TestAuthorizeMissingMembershipHidesTenant(t *testing.T) {
	svc, _, node := setupAccessService(t)

	_, err := svc.Authorize(context.Background(), node.Generate(), "stranger@example.com")
	assert.ErrorIs(t, err, accessdomain.ErrTenantNotFound)
}

func TestAuthorizeTenantIsolation(t *testing.T) {
	svc, gdb, node := setupAccessService(t)
	tenantA := node.Generate()
	tenantB := node.Generate()
	grantMembership(t, gdb, node, tenantA, "owner@acme.example", tenantdomain.RoleOwner)

	role, err := svc.Authorize(context.Background(), tenantA, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, tenantdomain.RoleOwner, role)

	// Membership in one tenant grants nothing in another, and the caller
	// cannot tell the other tenant exists.
	_, err = svc.Authorize(context.Background(), tenantB, "owner@acme.example")
	assert.ErrorIs(t, err, accessdomain.ErrTenantNotFound)
}

func TestAuthorizeRoleOutsideAllowedSet(t *testing.T) {
	svc, gdb, node := setupAccessService(t)
	tenantID := node.Generate()
	grantMembership(t, gdb, node, tenantID, "viewer@acme.example", tenantdomain.RoleViewer)

	_, err := svc.Authorize(context.Background(), tenantID, "viewer@acme.example", tenantdomain.WriteRoles()...)
	assert.ErrorIs(t, err, accessdomain.ErrForbidden)
}

func TestAuthorizeEmptyAllowedSetMeansAnyRole(t *testing.T) {
	svc, gdb, node := setupAccessService(t)
	tenantID := node.Generate()
	grantMembership(t, gdb, node, tenantID, "viewer@acme.example", tenantdomain.RoleViewer)

	role, err := svc.Authorize(context.Background(), tenantID, "viewer@acme.example")
	require.NoError(t, err)
	assert.Equal(t, tenantdomain.RoleViewer, role)
}

func TestAuthorizeNormalizesEmail(t *testing.T) {
	svc, gdb, node := setupAccessService(t)
	tenantID := node.Generate()
	grantMembership(t, gdb, node, tenantID, "finance@acme.example", tenantdomain.RoleFinance)

	role, err := svc.Authorize(context.Background(), tenantID, "  Finance@Acme.Example ")
	require.NoError(t, err)
	assert.Equal(t, tenantdomain.RoleFinance, role)
}
