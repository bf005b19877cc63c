// Package authz implements the tenant-membership and minimum-role gates
// that precede every workspace-scoped read or write.
package authz

import (
	"context"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/errors"
)

// Guard evaluates access decisions. Pure guard functions: no side
// effects beyond the lookups needed to decide.
type Guard struct {
	workspaces ports.WorkspaceRepository
}

// NewGuard creates a guard over the workspace repository
func NewGuard(workspaces ports.WorkspaceRepository) *Guard {
	return &Guard{workspaces: workspaces}
}

// RequireTenantAccess verifies the caller may touch the given workspace.
// It fails with Unauthenticated when no principal is attached, NotFound
// when the workspace does not exist, and Forbidden unless the caller is
// the workspace owner or holds a membership. On success it returns the
// resolved principal and workspace so callers avoid a second fetch.
func (g *Guard) RequireTenantAccess(ctx context.Context, workspaceID string) (*auth.Principal, *domain.Workspace, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, nil, errors.NewUnauthenticatedError("")
	}

	ws, err := g.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	if ws == nil {
		return nil, nil, errors.NewNotFoundError("workspace")
	}

	if ws.OwnerID == principal.UserID {
		return principal, ws, nil
	}

	m, err := g.workspaces.GetMembership(ctx, workspaceID, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, errors.NewForbiddenError("not a member of this workspace")
	}

	return principal, ws, nil
}

// RequireRole verifies the caller's effective role in the workspace
// ranks at or above min. The effective role comes from the caller's
// membership row, with an owner-id match counting as owner even when
// the membership row is missing.
func (g *Guard) RequireRole(ctx context.Context, workspaceID string, min domain.Role) (*auth.Principal, domain.Role, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, "", errors.NewUnauthenticatedError("")
	}

	role, err := g.effectiveRole(ctx, workspaceID, principal.UserID)
	if err != nil {
		return nil, "", err
	}

	if !role.AtLeast(min) {
		return nil, "", errors.NewForbiddenError("insufficient role")
	}

	return principal, role, nil
}

// effectiveRole resolves the caller's role within a workspace
func (g *Guard) effectiveRole(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	m, err := g.workspaces.GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if m != nil && m.Role.Valid() {
		return m.Role, nil
	}

	ws, err := g.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if ws != nil && ws.OwnerID == userID {
		return domain.RoleOwner, nil
	}

	// Authenticated but no standing in this workspace: ranks below viewer.
	return "", nil
}
