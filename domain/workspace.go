package domain

import "time"

// Role grants a user a set of capabilities within a workspace
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// roleRank encodes the total order viewer < member < admin < owner.
// Unknown roles map to zero and rank below viewer.
var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// AtLeast reports whether r ranks at or above min. Unknown roles rank
// below viewer.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Plan tiers
const (
	PlanFree = "free"
	PlanPro  = "pro"
	PlanTeam = "team"
)

// Workspace is the tenant root. All graph data belongs to exactly one
// workspace, and every access is gated on membership in it.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	OrgID     string    `json:"orgId"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Membership records a user's role within a workspace. At most one
// membership exists per (workspace, user) pair.
type Membership struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
}
