package ports

import (
	"context"

	"scholarmap-backend/domain"
)

// Repository interfaces define the persistence contracts. Implementations
// live in infrastructure/persistence; every method is a single atomic
// store operation unless noted otherwise.
//
// Lookup methods return (nil, nil) for absent entities; callers decide
// whether absence is an error.

// WorkspaceRepository persists workspaces and memberships
type WorkspaceRepository interface {
	// CreateWithOwner writes the workspace and the owner's membership as
	// one atomic unit. A crash cannot leave a workspace without its
	// owner membership row.
	CreateWithOwner(ctx context.Context, ws *domain.Workspace, owner *domain.Membership) error

	GetByID(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	GetByOrgID(ctx context.Context, orgID string) (*domain.Workspace, error)

	// AddMembership inserts a membership, failing with a Conflict error
	// if the (workspace, user) pair already has one.
	AddMembership(ctx context.Context, m *domain.Membership) error
	GetMembership(ctx context.Context, workspaceID, userID string) (*domain.Membership, error)
}

// QueryRepository persists research queries
type QueryRepository interface {
	Create(ctx context.Context, q *domain.Query) error
	GetByID(ctx context.Context, queryID string) (*domain.Query, error)

	// ListByWorkspace returns queries most-recent-first, at most limit.
	ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Query, error)

	// UpdateStatus transitions a query to the given status, stamping
	// CompletedAt only when the status is done. Only a query currently
	// running may transition; otherwise a Conflict error is returned.
	UpdateStatus(ctx context.Context, workspaceID, queryID string, status domain.QueryStatus) error
}

// GraphRepository persists nodes, edges and sources
type GraphRepository interface {
	CreateNode(ctx context.Context, n *domain.Node) error
	CreateEdge(ctx context.Context, e *domain.Edge) error
	CreateSource(ctx context.Context, s *domain.Source) error

	GetNodeByID(ctx context.Context, nodeID string) (*domain.Node, error)
	ListNodesByQuery(ctx context.Context, queryID string) ([]*domain.Node, error)
	ListEdgesByQuery(ctx context.Context, queryID string) ([]*domain.Edge, error)

	// ListSourcesByNode returns a node's sources ordered by rank ascending.
	ListSourcesByNode(ctx context.Context, nodeID string) ([]*domain.Source, error)
}

// AnnotationRepository persists notes and stars
type AnnotationRepository interface {
	CreateNote(ctx context.Context, n *domain.Note) error

	// ListNotesByNode returns notes most-recent-first.
	ListNotesByNode(ctx context.Context, nodeID string) ([]*domain.Note, error)

	// PutStar inserts a star, failing with a Conflict error if the
	// (node, user) pair already has one. The conditional insert makes
	// the star toggle safe against concurrent duplicate calls.
	PutStar(ctx context.Context, s *domain.Star) error

	// DeleteStar removes a star, reporting whether one existed.
	DeleteStar(ctx context.Context, nodeID, userID string) (bool, error)

	ListStarsByWorkspaceUser(ctx context.Context, workspaceID, userID string) ([]*domain.Star, error)
}

// AuditRepository appends immutable audit entries. Write-side forensics
// only; nothing reads them back.
type AuditRepository interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}
