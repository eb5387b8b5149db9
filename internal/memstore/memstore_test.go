package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

func TestUserUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "alice", Email: "Alice@Example.com"}))

	err := store.CreateUser(ctx, &models.User{Username: "alice"})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, appErr.HasField("username"))

	err = store.CreateUser(ctx, &models.User{Username: "alice2", Email: "alice@example.COM"})
	appErr, ok = apperr.As(err)
	require.True(t, ok)
	assert.True(t, appErr.HasField("email"))

	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "Alice"}), "usernames are case-sensitive")
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "noemail1"}))
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "noemail2"}), "empty emails never collide")
}

func TestDeleteUsersWithPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"testuser_a", "testuser_b", "keeper"} {
		require.NoError(t, store.CreateUser(ctx, &models.User{Username: name}))
	}

	deleted, err := store.DeleteUsersWithPrefix(ctx, "testuser_")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	users, err := store.ListUsers(ctx, "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "keeper", users[0].Username)
	assert.NotNil(t, users[0].Profile)
}

func TestGroupDeleteDropsMembership(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := &models.User{Username: "alice"}
	require.NoError(t, store.CreateUser(ctx, user))
	group := &models.Group{Name: "editors", Permissions: []string{"todo.view_todo"}}
	require.NoError(t, store.CreateGroup(ctx, group))
	require.NoError(t, store.SetUserGroups(ctx, user.ID, []string{"editors", "editors"}))

	loaded, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editors"}, loaded.Groups)

	require.NoError(t, store.DeleteGroup(ctx, group.ID))
	loaded, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Groups)
}

func TestToggleIsAtomicUnderConcurrency(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now()

	todo := &models.Todo{Title: "flip", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateTodo(ctx, todo))

	const toggles = 50
	done := make(chan error, toggles)
	for i := 0; i < toggles; i++ {
		go func() {
			_, err := store.ToggleTodo(ctx, todo.ID, time.Now())
			done <- err
		}()
	}
	for i := 0; i < toggles; i++ {
		require.NoError(t, <-done)
	}

	got, err := store.GetTodo(ctx, policy.TodoScope{Kind: policy.ScopeAll}, todo.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "an even number of toggles restores the initial state")
}

func TestGetTodoOutsideScope(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := &models.User{Username: "alice"}
	require.NoError(t, store.CreateUser(ctx, user))
	owner := user.ID
	todo := &models.Todo{Title: "mine", OwnerID: &owner}
	require.NoError(t, store.CreateTodo(ctx, todo))

	_, err := store.GetTodo(ctx, policy.TodoScope{Kind: policy.ScopeAnonymous}, todo.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	got, err := store.GetTodo(ctx, policy.TodoScope{Kind: policy.ScopeOwner, OwnerID: owner}, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerUsername)

	missing := int64(404)
	err = store.CreateTodo(ctx, &models.Todo{Title: "orphan", OwnerID: &missing})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSaveAccountIsAllOrNothing(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := &models.User{Username: "alice", IsActive: true}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "bob"}))
	require.NoError(t, store.CreateGroup(ctx, &models.Group{Name: "editors"}))

	changed := *user
	changed.IsActive = false
	err := store.SaveAccount(ctx, models.AccountUpdate{
		User:    &changed,
		Groups:  &[]string{"editors", "ghosts"},
		Profile: &models.Profile{Phone: "555-0100"},
	})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, appErr.HasField("groups"))

	changed.Username = "bob"
	err = store.SaveAccount(ctx, models.AccountUpdate{User: &changed, Groups: &[]string{"editors"}})
	appErr, ok = apperr.As(err)
	require.True(t, ok)
	assert.True(t, appErr.HasField("username"))

	loaded, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsActive)
	assert.Equal(t, "alice", loaded.Username)
	assert.Empty(t, loaded.Groups)
	profile, err := store.EnsureProfile(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, profile.Phone)

	changed.Username = "alice"
	require.NoError(t, store.SaveAccount(ctx, models.AccountUpdate{
		User:    &changed,
		Groups:  &[]string{"editors"},
		Profile: &models.Profile{Phone: "555-0100"},
	}))
	loaded, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)
	assert.Equal(t, []string{"editors"}, loaded.Groups)
	profile, err = store.EnsureProfile(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "555-0100", profile.Phone)
}
