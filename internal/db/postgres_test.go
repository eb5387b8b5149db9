package db_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/db"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

func connectPostgres(t *testing.T) *db.Postgres {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, err := db.NewPostgres(context.Background(), utils.PostgresConfig{
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}
	return store
}

func uniqueName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func createUser(t *testing.T, store *db.Postgres, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "hash",
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteUser(context.Background(), user.ID) })
	return user
}

func TestPostgresUserUniqueness(t *testing.T) {
	store := connectPostgres(t)
	ctx := context.Background()

	username := uniqueName("alice_")
	createUser(t, store, username)

	err := store.CreateUser(ctx, &models.User{Username: username, PasswordHash: "hash", DateJoined: time.Now()})
	verr, ok := apperr.As(err)
	if !ok || verr.Kind != apperr.KindValidation || !verr.HasField("username") {
		t.Fatalf("expected username validation error, got %v", err)
	}

	profile, err := store.EnsureProfile(ctx, createUser(t, store, uniqueName("bob_")).ID, time.Now())
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if profile.Phone != "" {
		t.Fatalf("expected empty profile, got %+v", profile)
	}

	if _, err := store.GetUserByID(ctx, -1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresTodoScopeAndToggle(t *testing.T) {
	store := connectPostgres(t)
	ctx := context.Background()

	owner := createUser(t, store, uniqueName("owner_"))
	other := createUser(t, store, uniqueName("other_"))

	now := time.Now().UTC()
	todo := &models.Todo{Title: "write tests", OwnerID: &owner.ID, CreatedAt: now, UpdatedAt: now}
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	otherScope := policy.VisibleTodos(policy.ActorFor(*other))
	if _, err := store.GetTodo(ctx, otherScope, todo.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected todo hidden from other user, got %v", err)
	}

	toggled, err := store.ToggleTodo(ctx, todo.ID, now.Add(time.Second))
	if err != nil {
		t.Fatalf("toggle todo: %v", err)
	}
	if !toggled.Completed || toggled.OwnerUsername != owner.Username {
		t.Fatalf("unexpected toggled todo: %+v", toggled)
	}

	filter := policy.FilterFor(policy.ActorFor(*owner))
	filter.Status = policy.StatusCompleted
	todos, err := store.ListTodos(ctx, filter)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != todo.ID {
		t.Fatalf("expected the completed todo, got %+v", todos)
	}
}

func TestPostgresAnonymousCleanup(t *testing.T) {
	store := connectPostgres(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-24 * time.Hour)
	todo := &models.Todo{Title: uniqueName("stale_"), CreatedAt: old, UpdatedAt: old}
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	cutoff := time.Now().UTC().Add(-time.Hour)
	stale, err := store.ListAnonymousTodosBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("list anonymous todos: %v", err)
	}
	found := false
	for _, s := range stale {
		found = found || s.ID == todo.ID
	}
	if !found {
		t.Fatalf("expected stale todo %d in %+v", todo.ID, stale)
	}

	if _, err := store.DeleteAnonymousTodosBefore(ctx, cutoff); err != nil {
		t.Fatalf("delete anonymous todos: %v", err)
	}
	if _, err := store.GetTodo(ctx, policy.VisibleTodos(policy.Anonymous()), todo.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected stale todo removed, got %v", err)
	}
}

func TestPostgresGroupsAndMembership(t *testing.T) {
	store := connectPostgres(t)
	ctx := context.Background()

	group := &models.Group{Name: uniqueName("editors_"), Permissions: []string{"todo.change_todo"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteGroup(context.Background(), group.ID) })

	user := createUser(t, store, uniqueName("member_"))
	if err := store.SetUserGroups(ctx, user.ID, []string{group.Name}); err != nil {
		t.Fatalf("set groups: %v", err)
	}

	reloaded, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(reloaded.Groups) != 1 || reloaded.Groups[0] != group.Name {
		t.Fatalf("expected membership in %s, got %v", group.Name, reloaded.Groups)
	}

	err = store.SetUserGroups(ctx, user.ID, []string{uniqueName("missing_")})
	if verr, ok := apperr.As(err); !ok || !verr.HasField("groups") {
		t.Fatalf("expected groups validation error, got %v", err)
	}
}

func TestPostgresSaveAccountRollsBack(t *testing.T) {
	store := connectPostgres(t)
	ctx := context.Background()

	user := createUser(t, store, uniqueName("account_"))
	if _, err := store.EnsureProfile(ctx, user.ID, time.Now().UTC()); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	changed := *user
	changed.IsActive = false
	changed.FirstName = "Changed"
	missing := []string{uniqueName("missing_")}
	err := store.SaveAccount(ctx, models.AccountUpdate{
		User:    &changed,
		Groups:  &missing,
		Profile: &models.Profile{Phone: "555-0100", UpdatedAt: time.Now().UTC()},
	})
	if verr, ok := apperr.As(err); !ok || !verr.HasField("groups") {
		t.Fatalf("expected groups validation error, got %v", err)
	}

	reloaded, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !reloaded.IsActive || reloaded.FirstName != user.FirstName {
		t.Fatalf("expected rejected update rolled back, got active=%v first=%q", reloaded.IsActive, reloaded.FirstName)
	}
	profile, err := store.EnsureProfile(ctx, user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if profile.Phone != "" {
		t.Fatalf("expected profile untouched, got phone %q", profile.Phone)
	}

	if err := store.SaveAccount(ctx, models.AccountUpdate{User: &changed, Groups: &[]string{}}); err != nil {
		t.Fatalf("save account: %v", err)
	}
	reloaded, err = store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.IsActive || reloaded.FirstName != "Changed" {
		t.Fatalf("expected update applied, got active=%v first=%q", reloaded.IsActive, reloaded.FirstName)
	}
}
