package authz

import (
	"context"
	"testing"

	"scholarmap-backend/domain"
	"scholarmap-backend/infrastructure/persistence/memory"
	"scholarmap-backend/pkg/auth"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWorkspace(t *testing.T, store *memory.Store) *domain.Workspace {
	t.Helper()

	ws := &domain.Workspace{
		ID:      "ws-1",
		Name:    "Research",
		Plan:    domain.PlanFree,
		OrgID:   "org-1",
		OwnerID: "owner-1",
	}
	owner := &domain.Membership{WorkspaceID: ws.ID, UserID: ws.OwnerID, Role: domain.RoleOwner}
	require.NoError(t, store.Workspaces().CreateWithOwner(context.Background(), ws, owner))
	return ws
}

func ctxWith(userID string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{
		UserID: userID,
		OrgID:  auth.SyntheticOrgID(userID),
	})
}

func TestRequireTenantAccess_NoPrincipal(t *testing.T) {
	store := memory.NewStore()
	seedWorkspace(t, store)
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireTenantAccess(context.Background(), "ws-1")

	assert.True(t, pkgerrors.IsUnauthenticated(err))
}

func TestRequireTenantAccess_WorkspaceMissing(t *testing.T) {
	store := memory.NewStore()
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireTenantAccess(ctxWith("owner-1"), "missing")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRequireTenantAccess_OwnerPasses(t *testing.T) {
	store := memory.NewStore()
	ws := seedWorkspace(t, store)
	guard := NewGuard(store.Workspaces())

	principal, got, err := guard.RequireTenantAccess(ctxWith("owner-1"), ws.ID)

	require.NoError(t, err)
	assert.Equal(t, "owner-1", principal.UserID)
	assert.Equal(t, ws.ID, got.ID)
}

func TestRequireTenantAccess_MemberPasses(t *testing.T) {
	store := memory.NewStore()
	ws := seedWorkspace(t, store)
	require.NoError(t, store.Workspaces().AddMembership(context.Background(), &domain.Membership{
		WorkspaceID: ws.ID, UserID: "member-1", Role: domain.RoleMember,
	}))
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireTenantAccess(ctxWith("member-1"), ws.ID)

	assert.NoError(t, err)
}

func TestRequireTenantAccess_StrangerForbidden(t *testing.T) {
	store := memory.NewStore()
	ws := seedWorkspace(t, store)
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireTenantAccess(ctxWith("stranger"), ws.ID)

	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestRequireRole_ViewerCannotWrite(t *testing.T) {
	store := memory.NewStore()
	ws := seedWorkspace(t, store)
	require.NoError(t, store.Workspaces().AddMembership(context.Background(), &domain.Membership{
		WorkspaceID: ws.ID, UserID: "viewer-1", Role: domain.RoleViewer,
	}))
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireRole(ctxWith("viewer-1"), ws.ID, domain.RoleMember)

	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestRequireRole_OwnerWithoutMembershipRow(t *testing.T) {
	store := memory.NewStore()
	ws := &domain.Workspace{ID: "ws-2", Name: "Solo", OrgID: "org-2", OwnerID: "solo-1"}
	// Membership row deliberately absent; only the workspace record names the owner.
	require.NoError(t, store.Workspaces().CreateWithOwner(context.Background(), ws, &domain.Membership{
		WorkspaceID: ws.ID, UserID: "someone-else", Role: domain.RoleAdmin,
	}))
	guard := NewGuard(store.Workspaces())

	_, role, err := guard.RequireRole(ctxWith("solo-1"), ws.ID, domain.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)
}

func TestRequireRole_NonMemberRanksBelowViewer(t *testing.T) {
	store := memory.NewStore()
	ws := seedWorkspace(t, store)
	guard := NewGuard(store.Workspaces())

	_, _, err := guard.RequireRole(ctxWith("stranger"), ws.ID, domain.RoleViewer)

	assert.True(t, pkgerrors.IsForbidden(err))
}
