package todo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/memstore"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T) (*Service, *memstore.Store, *fakeClock) {
	t.Helper()
	store := memstore.New()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(store, nil, WithClock(clock.Now)), store, clock
}

func createActor(t *testing.T, store *memstore.Store, username string, staff bool) policy.Actor {
	t.Helper()
	user := &models.User{Username: username, IsActive: true, IsStaff: staff, DateJoined: time.Now().UTC()}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return policy.ActorFor(*user)
}

func TestCreateResolvesOwner(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)

	anon, err := svc.Create(ctx, policy.Anonymous(), CreateInput{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Nil(t, anon.OwnerID)
	assert.Equal(t, "Buy milk", anon.Title)

	owned, err := svc.Create(ctx, alice, CreateInput{Title: "Write report"})
	require.NoError(t, err)
	require.NotNil(t, owned.OwnerID)
	assert.Equal(t, alice.ID, *owned.OwnerID)
	assert.Equal(t, "alice", owned.OwnerUsername)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), policy.Anonymous(), CreateInput{Title: "   "})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, appErr.HasField("title"))
}

func TestListIsScopedPerActor(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)
	bob := createActor(t, store, "bob", false)
	staff := createActor(t, store, "staff", true)

	_, err := svc.Create(ctx, policy.Anonymous(), CreateInput{Title: "anon"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, CreateInput{Title: "alice"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CreateInput{Title: "bob"})
	require.NoError(t, err)

	titles := func(actor policy.Actor) []string {
		todos, err := svc.List(ctx, actor)
		require.NoError(t, err)
		out := make([]string, 0, len(todos))
		for _, todo := range todos {
			out = append(out, todo.Title)
		}
		return out
	}

	assert.Equal(t, []string{"anon"}, titles(policy.Anonymous()))
	assert.Equal(t, []string{"alice"}, titles(alice))
	assert.ElementsMatch(t, []string{"anon", "alice", "bob"}, titles(staff))
}

func TestForeignTodoIsNotFound(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)
	bob := createActor(t, store, "bob", false)

	todo, err := svc.Create(ctx, alice, CreateInput{Title: "private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, todo.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "get: %v", err)

	_, err = svc.Toggle(ctx, bob, todo.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "toggle: %v", err)

	err = svc.Delete(ctx, policy.Anonymous(), todo.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "delete: %v", err)
}

func TestToggleTwiceRestoresState(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	anon := policy.Anonymous()

	todo, err := svc.Create(ctx, anon, CreateInput{Title: "flip"})
	require.NoError(t, err)

	clock.Advance(time.Second)
	first, err := svc.Toggle(ctx, anon, todo.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.True(t, first.UpdatedAt.After(todo.UpdatedAt))

	second, err := svc.Toggle(ctx, anon, todo.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)
}

func TestPendingOrdersNewestFirst(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, alice, CreateInput{Title: title})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	done, err := svc.Create(ctx, alice, CreateInput{Title: "done", Completed: true})
	require.NoError(t, err)

	pending, err := svc.Pending(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "third", pending[0].Title)
	assert.Equal(t, "first", pending[2].Title)

	completed, err := svc.Completed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
}

func TestUpdateFullRequiresTitle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	anon := policy.Anonymous()

	todo, err := svc.Create(ctx, anon, CreateInput{Title: "keep", Description: "details"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, anon, todo.ID, UpdateInput{}, false)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, appErr.HasField("title"))

	completed := true
	updated, err := svc.Update(ctx, anon, todo.ID, UpdateInput{Completed: &completed}, true)
	require.NoError(t, err)
	assert.Equal(t, "keep", updated.Title)
	assert.Equal(t, "details", updated.Description)
	assert.True(t, updated.Completed)

	title := "renamed"
	replaced, err := svc.Update(ctx, anon, todo.ID, UpdateInput{Title: &title}, false)
	require.NoError(t, err)
	assert.Equal(t, "renamed", replaced.Title)
	assert.Equal(t, "details", replaced.Description, "omitted fields survive a full update")
}

func TestAdminListRequiresStaff(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)
	staff := createActor(t, store, "staff", true)

	_, err := svc.AdminList(ctx, policy.Anonymous(), AdminListOptions{})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.AdminList(ctx, alice, AdminListOptions{})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svc.Create(ctx, alice, CreateInput{Title: "Groceries"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, policy.Anonymous(), CreateInput{Title: "Taxes", Completed: true})
	require.NoError(t, err)

	found, err := svc.AdminList(ctx, staff, AdminListOptions{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Groceries", found[0].Title)

	completed, err := svc.AdminList(ctx, staff, AdminListOptions{Status: "completed", Ordering: "title"})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Taxes", completed[0].Title)
}

func TestCleanupAnonymous(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	alice := createActor(t, store, "alice", false)
	anon := policy.Anonymous()

	old, err := svc.Create(ctx, anon, CreateInput{Title: "old"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, CreateInput{Title: "owned and old"})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = svc.Create(ctx, anon, CreateInput{Title: "fresh"})
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)

	dry, err := svc.CleanupAnonymous(ctx, 10*time.Minute, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, int64(1), dry.Count)
	require.Len(t, dry.Todos, 1)
	assert.Equal(t, old.ID, dry.Todos[0].ID)

	remaining, err := svc.List(ctx, anon)
	require.NoError(t, err)
	assert.Len(t, remaining, 2, "dry run must not delete")

	report, err := svc.CleanupAnonymous(ctx, 10*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Count)

	remaining, err = svc.List(ctx, anon)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Title)

	owned, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}
