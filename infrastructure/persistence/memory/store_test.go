package memory

import (
	"context"
	"testing"
	"time"

	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithOwner_OrgUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	ws := &domain.Workspace{ID: "ws-1", OrgID: "org-1", OwnerID: "u1"}
	owner := &domain.Membership{WorkspaceID: "ws-1", UserID: "u1", Role: domain.RoleOwner}
	require.NoError(t, store.Workspaces().CreateWithOwner(ctx, ws, owner))

	dup := &domain.Workspace{ID: "ws-2", OrgID: "org-1", OwnerID: "u2"}
	err := store.Workspaces().CreateWithOwner(ctx, dup, &domain.Membership{WorkspaceID: "ws-2", UserID: "u2", Role: domain.RoleOwner})

	assert.True(t, pkgerrors.IsConflict(err))

	// The losing write leaves no trace.
	got, err := store.Workspaces().GetByID(ctx, "ws-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddMembership_Duplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	m := &domain.Membership{WorkspaceID: "ws-1", UserID: "u1", Role: domain.RoleMember}

	require.NoError(t, store.Workspaces().AddMembership(ctx, m))
	err := store.Workspaces().AddMembership(ctx, m)

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestUpdateStatus_OnlyFromRunning(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	q := &domain.Query{ID: "q-1", WorkspaceID: "ws-1", Status: domain.QueryStatusRunning, StartedAt: time.Now()}
	require.NoError(t, store.Queries().Create(ctx, q))

	require.NoError(t, store.Queries().UpdateStatus(ctx, "ws-1", "q-1", domain.QueryStatusDone))

	err := store.Queries().UpdateStatus(ctx, "ws-1", "q-1", domain.QueryStatusFailed)
	assert.True(t, pkgerrors.IsConflict(err))

	got, err := store.Queries().GetByID(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusDone, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestUpdateStatus_WrongWorkspaceIsNotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	q := &domain.Query{ID: "q-1", WorkspaceID: "ws-1", Status: domain.QueryStatusRunning, StartedAt: time.Now()}
	require.NoError(t, store.Queries().Create(ctx, q))

	err := store.Queries().UpdateStatus(ctx, "ws-other", "q-1", domain.QueryStatusDone)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestListByWorkspace_OrderAndLimit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Queries().Create(ctx, &domain.Query{
			ID:          string(rune('a' + i)),
			WorkspaceID: "ws-1",
			Status:      domain.QueryStatusRunning,
			StartedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	queries, err := store.Queries().ListByWorkspace(ctx, "ws-1", 3)
	require.NoError(t, err)

	require.Len(t, queries, 3)
	assert.Equal(t, "e", queries[0].ID)
	assert.Equal(t, "d", queries[1].ID)
	assert.Equal(t, "c", queries[2].ID)
}

func TestStarLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	star := &domain.Star{NodeID: "n-1", WorkspaceID: "ws-1", UserID: "u1", CreatedAt: time.Now()}

	require.NoError(t, store.Annotations().PutStar(ctx, star))
	assert.True(t, pkgerrors.IsConflict(store.Annotations().PutStar(ctx, star)))

	existed, err := store.Annotations().DeleteStar(ctx, "n-1", "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Annotations().DeleteStar(ctx, "n-1", "u1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestListNotesByNode_MostRecentFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Annotations().CreateNote(ctx, &domain.Note{
			ID:        string(rune('a' + i)),
			NodeID:    "n-1",
			UserID:    "u1",
			Text:      "note",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	notes, err := store.Annotations().ListNotesByNode(ctx, "n-1")
	require.NoError(t, err)

	require.Len(t, notes, 3)
	assert.Equal(t, "c", notes[0].ID)
	assert.Equal(t, "a", notes[2].ID)
}

func TestStoreIsolation_CopiesOnReadAndWrite(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Original", OrgID: "org-1", OwnerID: "u1"}
	require.NoError(t, store.Workspaces().CreateWithOwner(ctx, ws, &domain.Membership{WorkspaceID: "ws-1", UserID: "u1", Role: domain.RoleOwner}))

	// Mutating the caller's struct after the write must not leak in.
	ws.Name = "Mutated"

	got, err := store.Workspaces().GetByID(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Name)

	// Mutating a read result must not leak back either.
	got.Name = "Mutated again"
	got2, err := store.Workspaces().GetByID(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", got2.Name)
}
