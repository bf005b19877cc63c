package services

import (
	"context"
	"fmt"
	"time"

	"scholarmap-backend/application/authz"
	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	"scholarmap-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WriteService is the transactional mutation API for the research graph.
// Every operation runs its authorization gates before touching data.
type WriteService struct {
	guard         *authz.Guard
	workspaces    ports.WorkspaceRepository
	queries       ports.QueryRepository
	graph         ports.GraphRepository
	annotations   ports.AnnotationRepository
	audit         ports.AuditRepository
	strictParents bool
	logger        *zap.Logger
}

// NewWriteService creates the write service. strictParents enables
// rejection of parent references that cross query boundaries.
func NewWriteService(
	guard *authz.Guard,
	workspaces ports.WorkspaceRepository,
	queries ports.QueryRepository,
	graph ports.GraphRepository,
	annotations ports.AnnotationRepository,
	audit ports.AuditRepository,
	strictParents bool,
	logger *zap.Logger,
) *WriteService {
	return &WriteService{
		guard:         guard,
		workspaces:    workspaces,
		queries:       queries,
		graph:         graph,
		annotations:   annotations,
		audit:         audit,
		strictParents: strictParents,
		logger:        logger,
	}
}

// CreateWorkspace inserts a workspace owned by the caller together with
// the caller's owner membership, in one atomic unit.
func (s *WriteService) CreateWorkspace(ctx context.Context, name, orgID, plan string) (*domain.Workspace, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if plan == "" {
		plan = domain.PlanFree
	}

	ws := &domain.Workspace{
		ID:        uuid.New().String(),
		Name:      name,
		Plan:      plan,
		OrgID:     orgID,
		OwnerID:   principal.UserID,
		CreatedAt: time.Now(),
	}
	owner := &domain.Membership{
		WorkspaceID: ws.ID,
		UserID:      principal.UserID,
		Role:        domain.RoleOwner,
	}

	if err := s.workspaces.CreateWithOwner(ctx, ws, owner); err != nil {
		return nil, err
	}

	if err := s.appendAudit(ctx, ws.ID, principal.UserID, domain.ActionWorkspaceCreated, "workspace", ws.ID, map[string]interface{}{
		"orgId": orgID,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Workspace created",
		zap.String("workspaceID", ws.ID),
		zap.String("orgID", orgID),
		zap.String("ownerID", principal.UserID),
	)

	return ws, nil
}

// CreateQuery inserts a running query stamped with the caller and the
// current time, and records the search request in the audit trail.
func (s *WriteService) CreateQuery(ctx context.Context, workspaceID, topic string, params map[string]interface{}) (*domain.Query, error) {
	principal, _, err := s.guard.RequireTenantAccess(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.guard.RequireRole(ctx, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	q := &domain.Query{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Topic:       topic,
		Status:      domain.QueryStatusRunning,
		CreatedBy:   principal.UserID,
		Params:      params,
		StartedAt:   time.Now(),
	}

	if err := s.queries.Create(ctx, q); err != nil {
		return nil, err
	}

	if err := s.appendAudit(ctx, workspaceID, principal.UserID, domain.ActionSearchRequested, "query", q.ID, map[string]interface{}{
		"topic": topic,
	}); err != nil {
		return nil, err
	}

	return q, nil
}

// AppendNodesAndSources is the core graph-construction routine: for each
// item it inserts a node, the item's sources in input order, and, when
// the item carries a parent reference, one derived "expands" edge.
// Not idempotent; the orchestrator guarantees at-most-once invocation
// per query. Returns the new node ids in item order.
func (s *WriteService) AppendNodesAndSources(ctx context.Context, queryID, workspaceID string, items []domain.NodeItem) ([]string, error) {
	if _, _, err := s.guard.RequireTenantAccess(ctx, workspaceID); err != nil {
		return nil, err
	}
	if _, _, err := s.guard.RequireRole(ctx, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	nodeIDs := make([]string, 0, len(items))

	for i, item := range items {
		parentID, err := s.resolveParent(ctx, queryID, i, item, nodeIDs)
		if err != nil {
			return nodeIDs, err
		}

		node := &domain.Node{
			ID:           uuid.New().String(),
			QueryID:      queryID,
			WorkspaceID:  workspaceID,
			Label:        item.Label,
			Type:         item.Type,
			ParentNodeID: parentID,
			Score:        item.Score,
			Metadata:     item.Metadata,
			CreatedAt:    time.Now(),
		}
		if err := s.graph.CreateNode(ctx, node); err != nil {
			return nodeIDs, err
		}
		nodeIDs = append(nodeIDs, node.ID)

		for _, src := range item.Sources {
			source := &domain.Source{
				ID:      uuid.New().String(),
				QueryID: queryID,
				NodeID:  node.ID,
				Kind:    src.Kind,
				Title:   src.Title,
				Authors: src.Authors,
				Year:    src.Year,
				URL:     src.URL,
				DOI:     src.DOI,
				Snippet: src.Snippet,
				Rank:    src.Rank,
			}
			if err := s.graph.CreateSource(ctx, source); err != nil {
				return nodeIDs, err
			}
		}

		// Edge derivation is deliberately a second step after the node
		// insert so further relation kinds can be added independently.
		if parentID != "" {
			if err := s.appendDerivedEdge(ctx, queryID, parentID, node.ID); err != nil {
				return nodeIDs, err
			}
		}
	}

	return nodeIDs, nil
}

// resolveParent turns an item's parent reference into a node id.
// ParentIndex points at an earlier item of the same batch; ParentNodeID
// names an already persisted node and, in strict mode, must belong to
// the same query.
func (s *WriteService) resolveParent(ctx context.Context, queryID string, index int, item domain.NodeItem, created []string) (string, error) {
	if item.ParentIndex != nil {
		pi := *item.ParentIndex
		if pi < 0 || pi >= index {
			return "", errors.NewValidationError(fmt.Sprintf("item %d: parentIndex %d does not reference an earlier item", index, pi))
		}
		return created[pi], nil
	}

	if item.ParentNodeID == "" {
		return "", nil
	}

	if s.strictParents {
		parent, err := s.graph.GetNodeByID(ctx, item.ParentNodeID)
		if err != nil {
			return "", err
		}
		if parent == nil || parent.QueryID != queryID {
			return "", errors.NewValidationError(fmt.Sprintf("item %d: parent node does not belong to this query", index))
		}
	}

	return item.ParentNodeID, nil
}

// appendDerivedEdge inserts the "expands" edge from a parent to a new node
func (s *WriteService) appendDerivedEdge(ctx context.Context, queryID, fromNodeID, toNodeID string) error {
	return s.graph.CreateEdge(ctx, &domain.Edge{
		ID:         uuid.New().String(),
		QueryID:    queryID,
		FromNodeID: fromNodeID,
		ToNodeID:   toNodeID,
		Relation:   domain.RelationExpands,
	})
}

// UpdateQueryStatus transitions a query to a terminal status. Only a
// running query may transition; a repeated terminal write fails with
// Conflict instead of silently overwriting.
func (s *WriteService) UpdateQueryStatus(ctx context.Context, queryID, workspaceID string, status domain.QueryStatus) error {
	if _, _, err := s.guard.RequireTenantAccess(ctx, workspaceID); err != nil {
		return err
	}

	if !status.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unknown query status %q", status))
	}

	return s.queries.UpdateStatus(ctx, workspaceID, queryID, status)
}

// AddNote inserts a note stamped with the caller and current time
func (s *WriteService) AddNote(ctx context.Context, nodeID, workspaceID, text string) (*domain.Note, error) {
	principal, _, err := s.guard.RequireTenantAccess(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.guard.RequireRole(ctx, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	note := &domain.Note{
		ID:          uuid.New().String(),
		NodeID:      nodeID,
		WorkspaceID: workspaceID,
		UserID:      principal.UserID,
		Text:        text,
		CreatedAt:   time.Now(),
	}
	if err := s.annotations.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// ToggleStar flips the caller's star on a node and reports the new
// state. The underlying conditional insert/delete keeps the at-most-one
// invariant under concurrent duplicate calls: whichever call loses the
// race observes the other's write and lands on the opposite state.
func (s *WriteService) ToggleStar(ctx context.Context, nodeID, workspaceID string) (bool, error) {
	principal, _, err := s.guard.RequireTenantAccess(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	if _, _, err := s.guard.RequireRole(ctx, workspaceID, domain.RoleMember); err != nil {
		return false, err
	}

	star := &domain.Star{
		NodeID:      nodeID,
		WorkspaceID: workspaceID,
		UserID:      principal.UserID,
		CreatedAt:   time.Now(),
	}

	err = s.annotations.PutStar(ctx, star)
	if err == nil {
		return true, nil
	}
	if !errors.IsConflict(err) {
		return false, err
	}

	// Star already present: remove it.
	if _, err := s.annotations.DeleteStar(ctx, nodeID, principal.UserID); err != nil {
		return false, err
	}
	return false, nil
}

// appendAudit records a sensitive action in the audit trail
func (s *WriteService) appendAudit(ctx context.Context, workspaceID, actorID, action, targetType, targetID string, metadata map[string]interface{}) error {
	return s.audit.Append(ctx, &domain.AuditEntry{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	})
}
