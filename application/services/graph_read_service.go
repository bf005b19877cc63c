package services

import (
	"context"

	"scholarmap-backend/application/authz"
	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"

	"go.uber.org/zap"
)

// maxQueryListSize caps GetQueriesByWorkspace results
const maxQueryListSize = 50

// ReadService is the read-only accessor API. Every accessor resolves the
// owning workspace of the requested entity and runs the tenant gate
// before returning data. Absent entities yield empty collections or nil
// singletons, not errors.
type ReadService struct {
	guard       *authz.Guard
	workspaces  ports.WorkspaceRepository
	queries     ports.QueryRepository
	graph       ports.GraphRepository
	annotations ports.AnnotationRepository
	logger      *zap.Logger
}

// NewReadService creates the read service
func NewReadService(
	guard *authz.Guard,
	workspaces ports.WorkspaceRepository,
	queries ports.QueryRepository,
	graph ports.GraphRepository,
	annotations ports.AnnotationRepository,
	logger *zap.Logger,
) *ReadService {
	return &ReadService{
		guard:       guard,
		workspaces:  workspaces,
		queries:     queries,
		graph:       graph,
		annotations: annotations,
		logger:      logger,
	}
}

// GetWorkspaceByOrgID returns the workspace for an external organization
// id, or nil when none exists. Requires only an authenticated caller;
// the workspace lookup itself is the entry point to tenant resolution.
func (s *ReadService) GetWorkspaceByOrgID(ctx context.Context, orgID string) (*domain.Workspace, error) {
	if _, err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.workspaces.GetByOrgID(ctx, orgID)
}

// GetQueriesByWorkspace returns the workspace's queries most-recent-first.
// A non-positive limit falls back to the cap; larger limits are clamped to it.
func (s *ReadService) GetQueriesByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Query, error) {
	if _, _, err := s.guard.RequireTenantAccess(ctx, workspaceID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxQueryListSize {
		limit = maxQueryListSize
	}
	return s.queries.ListByWorkspace(ctx, workspaceID, limit)
}

// GetQuery returns a query, or nil when it does not exist
func (s *ReadService) GetQuery(ctx context.Context, queryID string) (*domain.Query, error) {
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil || q == nil {
		return nil, err
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, q.WorkspaceID); err != nil {
		return nil, err
	}
	return q, nil
}

// GetNode returns a node, or nil when it does not exist
func (s *ReadService) GetNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	node, err := s.graph.GetNodeByID(ctx, nodeID)
	if err != nil || node == nil {
		return nil, err
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, node.WorkspaceID); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNodesByQuery returns a query's nodes, empty when the query is absent
func (s *ReadService) GetNodesByQuery(ctx context.Context, queryID string) ([]*domain.Node, error) {
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return []*domain.Node{}, nil
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, q.WorkspaceID); err != nil {
		return nil, err
	}
	return s.graph.ListNodesByQuery(ctx, queryID)
}

// GetEdgesByQuery returns a query's edges, empty when the query is absent
func (s *ReadService) GetEdgesByQuery(ctx context.Context, queryID string) ([]*domain.Edge, error) {
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return []*domain.Edge{}, nil
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, q.WorkspaceID); err != nil {
		return nil, err
	}
	return s.graph.ListEdgesByQuery(ctx, queryID)
}

// GetSourcesByNode returns a node's sources ordered by rank, empty when
// the node is absent
func (s *ReadService) GetSourcesByNode(ctx context.Context, nodeID string) ([]*domain.Source, error) {
	node, err := s.graph.GetNodeByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return []*domain.Source{}, nil
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, node.WorkspaceID); err != nil {
		return nil, err
	}
	return s.graph.ListSourcesByNode(ctx, nodeID)
}

// GetNotesByNode returns a node's notes most-recent-first, empty when
// the node is absent
func (s *ReadService) GetNotesByNode(ctx context.Context, nodeID string) ([]*domain.Note, error) {
	node, err := s.graph.GetNodeByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return []*domain.Note{}, nil
	}
	if _, _, err := s.guard.RequireTenantAccess(ctx, node.WorkspaceID); err != nil {
		return nil, err
	}
	return s.annotations.ListNotesByNode(ctx, nodeID)
}

// GetStarredNodes returns the nodes the caller has starred in the
// workspace. Stars whose node no longer resolves are dropped.
func (s *ReadService) GetStarredNodes(ctx context.Context, workspaceID string) ([]*domain.Node, error) {
	principal, _, err := s.guard.RequireTenantAccess(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	stars, err := s.annotations.ListStarsByWorkspaceUser(ctx, workspaceID, principal.UserID)
	if err != nil {
		return nil, err
	}

	nodes := make([]*domain.Node, 0, len(stars))
	for _, star := range stars {
		node, err := s.graph.GetNodeByID(ctx, star.NodeID)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
