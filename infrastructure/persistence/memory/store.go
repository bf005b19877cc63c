// Package memory provides an in-memory implementation of every
// repository port. It backs local development without AWS credentials
// and the service-level tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"
)

// Store holds all entities behind one mutex. Semantics mirror the
// DynamoDB implementation: conditional inserts fail with Conflict,
// absent lookups return (nil, nil), list orderings match the sort-key
// orderings of the table layout. The port-facing views are obtained
// from Workspaces, Queries, Graph, Annotations and Audit.
type Store struct {
	mu sync.RWMutex

	workspaces  map[string]*domain.Workspace // by workspace id
	orgIndex    map[string]string            // org id -> workspace id
	memberships map[string]*domain.Membership
	queries     map[string]*domain.Query
	nodes       map[string]*domain.Node
	edges       map[string]*domain.Edge
	sources     map[string][]*domain.Source // by node id
	notes       map[string][]*domain.Note   // by node id
	stars       map[string]*domain.Star
	audit       []*domain.AuditEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		workspaces:  make(map[string]*domain.Workspace),
		orgIndex:    make(map[string]string),
		memberships: make(map[string]*domain.Membership),
		queries:     make(map[string]*domain.Query),
		nodes:       make(map[string]*domain.Node),
		edges:       make(map[string]*domain.Edge),
		sources:     make(map[string][]*domain.Source),
		notes:       make(map[string][]*domain.Note),
		stars:       make(map[string]*domain.Star),
	}
}

// Workspaces returns the workspace repository view
func (s *Store) Workspaces() ports.WorkspaceRepository { return &workspaceStore{s} }

// Queries returns the query repository view
func (s *Store) Queries() ports.QueryRepository { return &queryStore{s} }

// Graph returns the graph repository view
func (s *Store) Graph() ports.GraphRepository { return &graphStore{s} }

// Annotations returns the annotation repository view
func (s *Store) Annotations() ports.AnnotationRepository { return &annotationStore{s} }

// Audit returns the audit repository view
func (s *Store) Audit() ports.AuditRepository { return &auditStore{s} }

// AuditEntries returns a snapshot of the audit trail, oldest first.
// Test helper; the service itself never reads audit data back.
func (s *Store) AuditEntries() []*domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*domain.AuditEntry, 0, len(s.audit))
	for _, e := range s.audit {
		eCopy := *e
		entries = append(entries, &eCopy)
	}
	return entries
}

func membershipKey(workspaceID, userID string) string { return workspaceID + "/" + userID }
func starKey(nodeID, userID string) string            { return nodeID + "/" + userID }

type workspaceStore struct{ s *Store }

func (w *workspaceStore) CreateWithOwner(ctx context.Context, ws *domain.Workspace, owner *domain.Membership) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	if _, exists := w.s.orgIndex[ws.OrgID]; exists {
		return pkgerrors.NewConflictError("workspace already exists for organization")
	}
	if _, exists := w.s.workspaces[ws.ID]; exists {
		return pkgerrors.NewConflictError("workspace already exists")
	}

	wsCopy := *ws
	ownerCopy := *owner
	w.s.workspaces[ws.ID] = &wsCopy
	w.s.orgIndex[ws.OrgID] = ws.ID
	w.s.memberships[membershipKey(owner.WorkspaceID, owner.UserID)] = &ownerCopy
	return nil
}

func (w *workspaceStore) GetByID(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()

	ws, ok := w.s.workspaces[workspaceID]
	if !ok {
		return nil, nil
	}
	wsCopy := *ws
	return &wsCopy, nil
}

func (w *workspaceStore) GetByOrgID(ctx context.Context, orgID string) (*domain.Workspace, error) {
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()

	id, ok := w.s.orgIndex[orgID]
	if !ok {
		return nil, nil
	}
	wsCopy := *w.s.workspaces[id]
	return &wsCopy, nil
}

func (w *workspaceStore) AddMembership(ctx context.Context, m *domain.Membership) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	key := membershipKey(m.WorkspaceID, m.UserID)
	if _, exists := w.s.memberships[key]; exists {
		return pkgerrors.NewConflictError("membership already exists")
	}
	mCopy := *m
	w.s.memberships[key] = &mCopy
	return nil
}

func (w *workspaceStore) GetMembership(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()

	m, ok := w.s.memberships[membershipKey(workspaceID, userID)]
	if !ok {
		return nil, nil
	}
	mCopy := *m
	return &mCopy, nil
}

type queryStore struct{ s *Store }

func (q *queryStore) Create(ctx context.Context, query *domain.Query) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	if _, exists := q.s.queries[query.ID]; exists {
		return pkgerrors.NewConflictError("query already exists")
	}
	queryCopy := *query
	q.s.queries[query.ID] = &queryCopy
	return nil
}

func (q *queryStore) GetByID(ctx context.Context, queryID string) (*domain.Query, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	query, ok := q.s.queries[queryID]
	if !ok {
		return nil, nil
	}
	queryCopy := *query
	return &queryCopy, nil
}

func (q *queryStore) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Query, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	queries := make([]*domain.Query, 0)
	for _, query := range q.s.queries {
		if query.WorkspaceID == workspaceID {
			queryCopy := *query
			queries = append(queries, &queryCopy)
		}
	}
	sort.Slice(queries, func(i, j int) bool {
		return queries[i].StartedAt.After(queries[j].StartedAt)
	})
	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, nil
}

func (q *queryStore) UpdateStatus(ctx context.Context, workspaceID, queryID string, status domain.QueryStatus) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	query, ok := q.s.queries[queryID]
	if !ok || query.WorkspaceID != workspaceID {
		return pkgerrors.NewNotFoundError("query")
	}
	if query.Status != domain.QueryStatusRunning {
		return pkgerrors.NewConflictError("query already reached a terminal status")
	}

	query.Status = status
	if status == domain.QueryStatusDone {
		now := time.Now()
		query.CompletedAt = &now
	}
	return nil
}

type graphStore struct{ s *Store }

func (g *graphStore) CreateNode(ctx context.Context, n *domain.Node) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	if _, exists := g.s.nodes[n.ID]; exists {
		return pkgerrors.NewConflictError("node already exists")
	}
	nCopy := *n
	g.s.nodes[n.ID] = &nCopy
	return nil
}

func (g *graphStore) CreateEdge(ctx context.Context, e *domain.Edge) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	eCopy := *e
	g.s.edges[e.ID] = &eCopy
	return nil
}

func (g *graphStore) CreateSource(ctx context.Context, src *domain.Source) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	srcCopy := *src
	g.s.sources[src.NodeID] = append(g.s.sources[src.NodeID], &srcCopy)
	return nil
}

func (g *graphStore) GetNodeByID(ctx context.Context, nodeID string) (*domain.Node, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	n, ok := g.s.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	nCopy := *n
	return &nCopy, nil
}

func (g *graphStore) ListNodesByQuery(ctx context.Context, queryID string) ([]*domain.Node, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	nodes := make([]*domain.Node, 0)
	for _, n := range g.s.nodes {
		if n.QueryID == queryID {
			nCopy := *n
			nodes = append(nodes, &nCopy)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt) ||
			(nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) && nodes[i].ID < nodes[j].ID)
	})
	return nodes, nil
}

func (g *graphStore) ListEdgesByQuery(ctx context.Context, queryID string) ([]*domain.Edge, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	edges := make([]*domain.Edge, 0)
	for _, e := range g.s.edges {
		if e.QueryID == queryID {
			eCopy := *e
			edges = append(edges, &eCopy)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

func (g *graphStore) ListSourcesByNode(ctx context.Context, nodeID string) ([]*domain.Source, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	sources := make([]*domain.Source, 0, len(g.s.sources[nodeID]))
	for _, src := range g.s.sources[nodeID] {
		srcCopy := *src
		sources = append(sources, &srcCopy)
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Rank < sources[j].Rank })
	return sources, nil
}

type annotationStore struct{ s *Store }

func (a *annotationStore) CreateNote(ctx context.Context, n *domain.Note) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	nCopy := *n
	a.s.notes[n.NodeID] = append(a.s.notes[n.NodeID], &nCopy)
	return nil
}

func (a *annotationStore) ListNotesByNode(ctx context.Context, nodeID string) ([]*domain.Note, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	notes := make([]*domain.Note, 0, len(a.s.notes[nodeID]))
	for _, n := range a.s.notes[nodeID] {
		nCopy := *n
		notes = append(notes, &nCopy)
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (a *annotationStore) PutStar(ctx context.Context, star *domain.Star) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	key := starKey(star.NodeID, star.UserID)
	if _, exists := a.s.stars[key]; exists {
		return pkgerrors.NewConflictError("star already exists")
	}
	starCopy := *star
	a.s.stars[key] = &starCopy
	return nil
}

func (a *annotationStore) DeleteStar(ctx context.Context, nodeID, userID string) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	key := starKey(nodeID, userID)
	if _, exists := a.s.stars[key]; !exists {
		return false, nil
	}
	delete(a.s.stars, key)
	return true, nil
}

func (a *annotationStore) ListStarsByWorkspaceUser(ctx context.Context, workspaceID, userID string) ([]*domain.Star, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	stars := make([]*domain.Star, 0)
	for _, star := range a.s.stars {
		if star.WorkspaceID == workspaceID && star.UserID == userID {
			starCopy := *star
			stars = append(stars, &starCopy)
		}
	}
	sort.Slice(stars, func(i, j int) bool { return stars[i].NodeID < stars[j].NodeID })
	return stars, nil
}

type auditStore struct{ s *Store }

func (a *auditStore) Append(ctx context.Context, e *domain.AuditEntry) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	eCopy := *e
	a.s.audit = append(a.s.audit, &eCopy)
	return nil
}
