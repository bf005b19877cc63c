package services

import (
	"context"
	"testing"
	"time"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	"scholarmap-backend/infrastructure/discovery"
	pkgerrors "scholarmap-backend/pkg/errors"
	"scholarmap-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrchestrator(env *testEnv, d ports.Discoverer, events ports.EventPublisher, timeout time.Duration) *Orchestrator {
	return NewOrchestrator(env.store.Workspaces(), env.writes, d, events, observability.NopMetrics{}, timeout, zap.NewNop())
}

func TestSearch_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	publisher := &recordingPublisher{}
	o := newOrchestrator(env, discovery.NewStaticDiscoverer(), publisher, time.Minute)
	ctx := principalCtx("alice")

	result, err := o.Search(ctx, "Persuasion", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.QueryID)
	require.NotEmpty(t, result.WorkspaceID)

	o.Wait()

	q, err := env.store.Queries().GetByID(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusDone, q.Status)
	assert.NotNil(t, q.CompletedAt)

	nodes, err := env.store.Graph().ListNodesByQuery(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	edges, err := env.store.Graph().ListEdgesByQuery(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Len(t, edges, 3)

	types := map[string]int{}
	for _, n := range nodes {
		types[n.Type]++
	}
	assert.Equal(t, 1, types[domain.NodeTypeTopic])
	assert.Equal(t, 2, types[domain.NodeTypeSubtopic])
	assert.Equal(t, 1, types[domain.NodeTypeAuthor])

	events := publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ports.EventQueryCreated, events[0].Type)
	assert.Equal(t, ports.EventQueryCompleted, events[1].Type)
}

func TestSearch_CreatesDefaultWorkspaceOnFirstUse(t *testing.T) {
	env := newTestEnv(t)
	o := newOrchestrator(env, discovery.NewStaticDiscoverer(), nil, time.Minute)
	ctx := principalCtx("alice")

	result, err := o.Search(ctx, "topic one", nil)
	require.NoError(t, err)
	o.Wait()

	ws, err := env.store.Workspaces().GetByOrgID(context.Background(), "user_alice")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, result.WorkspaceID, ws.ID)
	assert.Equal(t, "Default Workspace for alice", ws.Name)

	// A second search reuses the workspace instead of creating another.
	result2, err := o.Search(ctx, "topic two", nil)
	require.NoError(t, err)
	o.Wait()
	assert.Equal(t, ws.ID, result2.WorkspaceID)
}

func TestSearch_BlankTopicRejected(t *testing.T) {
	env := newTestEnv(t)
	o := newOrchestrator(env, discovery.NewStaticDiscoverer(), nil, time.Minute)

	_, err := o.Search(principalCtx("alice"), "   ", nil)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSearch_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	o := newOrchestrator(env, discovery.NewStaticDiscoverer(), nil, time.Minute)

	_, err := o.Search(context.Background(), "topic", nil)

	assert.True(t, pkgerrors.IsUnauthenticated(err))
}

func TestSearch_DiscoveryFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	publisher := &recordingPublisher{}
	o := newOrchestrator(env, failingDiscoverer{}, publisher, time.Minute)
	ctx := principalCtx("alice")

	result, err := o.Search(ctx, "doomed topic", nil)
	require.NoError(t, err)

	o.Wait()

	q, err := env.store.Queries().GetByID(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, q.Status)
	assert.Nil(t, q.CompletedAt)

	nodes, err := env.store.Graph().ListNodesByQuery(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	events := publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ports.EventQueryFailed, events[1].Type)
}

func TestSearch_DeadlineMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	o := newOrchestrator(env, slowDiscoverer{}, nil, 50*time.Millisecond)
	ctx := principalCtx("alice")

	result, err := o.Search(ctx, "slow topic", nil)
	require.NoError(t, err)

	o.Wait()

	q, err := env.store.Queries().GetByID(context.Background(), result.QueryID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, q.Status)
}
