package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"scholarmap-backend/application/authz"
	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	"scholarmap-backend/infrastructure/persistence/memory"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/observability"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv bundles the services over a fresh in-memory store
type testEnv struct {
	store  *memory.Store
	writes *WriteService
	reads  *ReadService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvStrict(t, true)
}

func newTestEnvStrict(t *testing.T, strictParents bool) *testEnv {
	t.Helper()

	store := memory.NewStore()
	guard := authz.NewGuard(store.Workspaces())
	logger := zap.NewNop()

	return &testEnv{
		store:  store,
		writes: NewWriteService(guard, store.Workspaces(), store.Queries(), store.Graph(), store.Annotations(), store.Audit(), strictParents, logger),
		reads:  NewReadService(guard, store.Workspaces(), store.Queries(), store.Graph(), store.Annotations(), logger),
	}
}

func principalCtx(userID string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{
		UserID: userID,
		OrgID:  auth.SyntheticOrgID(userID),
	})
}

func (e *testEnv) createWorkspace(t *testing.T, ctx context.Context) *domain.Workspace {
	t.Helper()

	ws, err := e.writes.CreateWorkspace(ctx, "Test Workspace", "org-test", domain.PlanFree)
	require.NoError(t, err)
	return ws
}

func (e *testEnv) createQuery(t *testing.T, ctx context.Context, workspaceID, topic string) *domain.Query {
	t.Helper()

	q, err := e.writes.CreateQuery(ctx, workspaceID, topic, nil)
	require.NoError(t, err)
	return q
}

// recordingPublisher captures lifecycle events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.QueryEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event ports.QueryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []ports.QueryEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.QueryEvent(nil), p.events...)
}

// failingDiscoverer always errors, standing in for a provider outage
type failingDiscoverer struct{}

func (failingDiscoverer) Discover(ctx context.Context, topic string, params map[string]interface{}) ([]domain.NodeItem, error) {
	return nil, context.DeadlineExceeded
}

// slowDiscoverer blocks until its context expires
type slowDiscoverer struct{}

func (slowDiscoverer) Discover(ctx context.Context, topic string, params map[string]interface{}) ([]domain.NodeItem, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Second):
		return nil, nil
	}
}

var _ observability.MetricsPublisher = observability.NopMetrics{}
