package services

import (
	"context"
	"testing"

	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkspace_WritesOwnerMembershipAndAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")

	ws := env.createWorkspace(t, ctx)

	m, err := env.store.Workspaces().GetMembership(context.Background(), ws.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.RoleOwner, m.Role)

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionWorkspaceCreated, entries[0].Action)
	assert.Equal(t, "alice", entries[0].ActorID)
}

func TestCreateWorkspace_SecondForSameOrgConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	env.createWorkspace(t, ctx)

	_, err := env.writes.CreateWorkspace(ctx, "Another", "org-test", domain.PlanFree)

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestCreateQuery_StartsRunningAndAudits(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)

	q := env.createQuery(t, ctx, ws.ID, "graph databases")

	assert.Equal(t, domain.QueryStatusRunning, q.Status)
	assert.Equal(t, "alice", q.CreatedBy)
	assert.Nil(t, q.CompletedAt)

	entries := env.store.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionSearchRequested, entries[1].Action)
	assert.Equal(t, q.ID, entries[1].TargetID)
}

func TestCreateQuery_RequiresMemberRole(t *testing.T) {
	env := newTestEnv(t)
	ws := env.createWorkspace(t, principalCtx("alice"))
	require.NoError(t, env.store.Workspaces().AddMembership(context.Background(), &domain.Membership{
		WorkspaceID: ws.ID, UserID: "bob", Role: domain.RoleViewer,
	}))

	_, err := env.writes.CreateQuery(principalCtx("bob"), ws.ID, "topic", nil)

	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestAppendNodesAndSources_BuildsGraphWithDerivedEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")

	items := []domain.NodeItem{
		{
			Label: "topic",
			Type:  domain.NodeTypeTopic,
			Sources: []domain.SourceItem{
				{Kind: "article", Title: "Overview", Rank: 0},
				{Kind: "paper", Title: "Deep dive", Rank: 1},
			},
		},
		{Label: "child A", Type: domain.NodeTypeSubtopic, ParentIndex: intPtr(0)},
		{Label: "child B", Type: domain.NodeTypeSubtopic, ParentIndex: intPtr(0)},
	}

	nodeIDs, err := env.writes.AppendNodesAndSources(ctx, q.ID, ws.ID, items)
	require.NoError(t, err)
	require.Len(t, nodeIDs, 3)

	nodes, err := env.store.Graph().ListNodesByQuery(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	// Children reference the root node persisted earlier in the batch.
	root, err := env.store.Graph().GetNodeByID(context.Background(), nodeIDs[0])
	require.NoError(t, err)
	assert.Empty(t, root.ParentNodeID)

	edges, err := env.store.Graph().ListEdgesByQuery(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, domain.RelationExpands, e.Relation)
		assert.Equal(t, nodeIDs[0], e.FromNodeID)
	}

	sources, err := env.store.Graph().ListSourcesByNode(context.Background(), nodeIDs[0])
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Overview", sources[0].Title)
	assert.Equal(t, "Deep dive", sources[1].Title)
}

func TestAppendNodesAndSources_ForwardParentIndexRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")

	items := []domain.NodeItem{
		{Label: "first", Type: domain.NodeTypeTopic, ParentIndex: intPtr(1)},
		{Label: "second", Type: domain.NodeTypeSubtopic},
	}

	_, err := env.writes.AppendNodesAndSources(ctx, q.ID, ws.ID, items)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAppendNodesAndSources_StrictRejectsCrossQueryParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q1 := env.createQuery(t, ctx, ws.ID, "first")
	q2 := env.createQuery(t, ctx, ws.ID, "second")

	ids, err := env.writes.AppendNodesAndSources(ctx, q1.ID, ws.ID, []domain.NodeItem{
		{Label: "root", Type: domain.NodeTypeTopic},
	})
	require.NoError(t, err)

	_, err = env.writes.AppendNodesAndSources(ctx, q2.ID, ws.ID, []domain.NodeItem{
		{Label: "orphan", Type: domain.NodeTypeSubtopic, ParentNodeID: ids[0]},
	})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAppendNodesAndSources_LenientAllowsCrossQueryParent(t *testing.T) {
	env := newTestEnvStrict(t, false)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q1 := env.createQuery(t, ctx, ws.ID, "first")
	q2 := env.createQuery(t, ctx, ws.ID, "second")

	ids, err := env.writes.AppendNodesAndSources(ctx, q1.ID, ws.ID, []domain.NodeItem{
		{Label: "root", Type: domain.NodeTypeTopic},
	})
	require.NoError(t, err)

	_, err = env.writes.AppendNodesAndSources(ctx, q2.ID, ws.ID, []domain.NodeItem{
		{Label: "linked", Type: domain.NodeTypeSubtopic, ParentNodeID: ids[0]},
	})

	assert.NoError(t, err)
}

func TestUpdateQueryStatus_TerminalOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")

	require.NoError(t, env.writes.UpdateQueryStatus(ctx, q.ID, ws.ID, domain.QueryStatusDone))

	got, err := env.store.Queries().GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusDone, got.Status)
	assert.NotNil(t, got.CompletedAt)

	err = env.writes.UpdateQueryStatus(ctx, q.ID, ws.ID, domain.QueryStatusFailed)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestUpdateQueryStatus_FailedHasNoCompletedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")

	require.NoError(t, env.writes.UpdateQueryStatus(ctx, q.ID, ws.ID, domain.QueryStatusFailed))

	got, err := env.store.Queries().GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdateQueryStatus_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")

	err := env.writes.UpdateQueryStatus(ctx, q.ID, ws.ID, domain.QueryStatus("paused"))

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestToggleStar_Involution(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")
	ids, err := env.writes.AppendNodesAndSources(ctx, q.ID, ws.ID, []domain.NodeItem{
		{Label: "root", Type: domain.NodeTypeTopic},
	})
	require.NoError(t, err)
	nodeID := ids[0]

	starred, err := env.writes.ToggleStar(ctx, nodeID, ws.ID)
	require.NoError(t, err)
	assert.True(t, starred)

	starred, err = env.writes.ToggleStar(ctx, nodeID, ws.ID)
	require.NoError(t, err)
	assert.False(t, starred)

	stars, err := env.store.Annotations().ListStarsByWorkspaceUser(context.Background(), ws.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, stars)
}

func TestToggleStar_PerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")
	ids, err := env.writes.AppendNodesAndSources(ctx, q.ID, ws.ID, []domain.NodeItem{
		{Label: "root", Type: domain.NodeTypeTopic},
	})
	require.NoError(t, err)

	require.NoError(t, env.store.Workspaces().AddMembership(context.Background(), &domain.Membership{
		WorkspaceID: ws.ID, UserID: "bob", Role: domain.RoleMember,
	}))

	_, err = env.writes.ToggleStar(ctx, ids[0], ws.ID)
	require.NoError(t, err)
	starred, err := env.writes.ToggleStar(principalCtx("bob"), ids[0], ws.ID)
	require.NoError(t, err)

	// Bob's toggle is independent of Alice's existing star.
	assert.True(t, starred)
}

func TestAddNote_StampsCaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := principalCtx("alice")
	ws := env.createWorkspace(t, ctx)
	q := env.createQuery(t, ctx, ws.ID, "topic")
	ids, err := env.writes.AppendNodesAndSources(ctx, q.ID, ws.ID, []domain.NodeItem{
		{Label: "root", Type: domain.NodeTypeTopic},
	})
	require.NoError(t, err)

	note, err := env.writes.AddNote(ctx, ids[0], ws.ID, "promising direction")
	require.NoError(t, err)

	assert.Equal(t, "alice", note.UserID)
	assert.Equal(t, ids[0], note.NodeID)
	assert.False(t, note.CreatedAt.IsZero())
}

func intPtr(i int) *int { return &i }
