package policy

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/tasklist/internal/models"
)

func ownerID(id int64) *int64 { return &id }

var (
	anonymous = Anonymous()
	alice     = Actor{ID: 1, Username: "alice", IsAuthenticated: true}
	staff     = Actor{ID: 2, Username: "staff", IsAuthenticated: true, IsStaff: true}
	root      = Actor{ID: 3, Username: "root", IsAuthenticated: true, IsSuperuser: true}
)

func TestVisibleTodos(t *testing.T) {
	anonTodo := models.Todo{ID: 1}
	aliceTodo := models.Todo{ID: 2, OwnerID: ownerID(1)}
	bobTodo := models.Todo{ID: 3, OwnerID: ownerID(9)}

	cases := []struct {
		name  string
		actor Actor
		want  map[int64]bool
	}{
		{"anonymous sees anonymous todos", anonymous, map[int64]bool{1: true, 2: false, 3: false}},
		{"user sees own todos", alice, map[int64]bool{1: false, 2: true, 3: false}},
		{"staff sees everything", staff, map[int64]bool{1: true, 2: true, 3: true}},
		{"superuser sees everything", root, map[int64]bool{1: true, 2: true, 3: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope := VisibleTodos(tc.actor)
			for _, todo := range []models.Todo{anonTodo, aliceTodo, bobTodo} {
				assert.Equal(t, tc.want[todo.ID], scope.Allows(todo), "todo %d", todo.ID)
			}
		})
	}
}

func TestCanModifyTodoMatchesVisibility(t *testing.T) {
	todos := []models.Todo{{ID: 1}, {ID: 2, OwnerID: ownerID(1)}, {ID: 3, OwnerID: ownerID(9)}}
	for _, actor := range []Actor{anonymous, alice, staff, root} {
		scope := VisibleTodos(actor)
		for _, todo := range todos {
			assert.Equal(t, scope.Allows(todo), CanModifyTodo(actor, todo), "actor %q todo %d", actor.Username, todo.ID)
		}
	}
}

func TestCanSetUserFlag(t *testing.T) {
	target := models.User{ID: 7, Username: "target"}

	cases := []struct {
		name  string
		actor Actor
		flag  UserFlag
		want  bool
	}{
		{"staff sets active", staff, FlagActive, true},
		{"staff sets staff", staff, FlagStaff, true},
		{"staff cannot set superuser", staff, FlagSuperuser, false},
		{"superuser sets superuser", root, FlagSuperuser, true},
		{"plain user cannot set active", alice, FlagActive, false},
		{"anonymous cannot set staff", anonymous, FlagStaff, false},
		{"unknown flag", root, UserFlag("is_wizard"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanSetUserFlag(tc.actor, target, tc.flag))
		})
	}
}

func TestResolveOwnerOnCreate(t *testing.T) {
	assert.Nil(t, ResolveOwnerOnCreate(anonymous))

	owner := ResolveOwnerOnCreate(alice)
	require.NotNil(t, owner)
	assert.Equal(t, int64(1), *owner)
}

func TestParseOrdering(t *testing.T) {
	cases := map[string]Ordering{
		"":            DefaultOrdering,
		"title":       {Field: OrderTitle},
		"-title":      {Field: OrderTitle, Desc: true},
		"updated_at":  {Field: OrderUpdatedAt},
		"-created_at": DefaultOrdering,
		"password":    DefaultOrdering,
		"-owner_id":   DefaultOrdering,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseOrdering(raw), "ordering %q", raw)
	}
	assert.Equal(t, "-created_at", DefaultOrdering.String())
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusCompleted, ParseStatus(" Completed "))
	assert.Equal(t, StatusPending, ParseStatus("pending"))
	assert.Equal(t, StatusAll, ParseStatus("whatever"))
}

func TestFilterMatchesSearch(t *testing.T) {
	filter := FilterFor(staff)
	filter.Search = "MILK"

	assert.True(t, filter.Matches(models.Todo{Title: "Buy milk"}))
	assert.True(t, filter.Matches(models.Todo{Description: "oat milk please"}))
	assert.True(t, filter.Matches(models.Todo{Title: "x", OwnerUsername: "milkman", OwnerID: ownerID(4)}))
	assert.False(t, filter.Matches(models.Todo{Title: "Walk dog"}))

	filter.Search = ""
	filter.Status = StatusCompleted
	assert.False(t, filter.Matches(models.Todo{Title: "pending"}))
	assert.True(t, filter.Matches(models.Todo{Title: "done", Completed: true}))
}

func TestOrderingLessBreaksTiesByID(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	todos := []models.Todo{
		{ID: 1, CreatedAt: at},
		{ID: 3, CreatedAt: at},
		{ID: 2, CreatedAt: at.Add(time.Minute)},
	}

	sort.Slice(todos, func(i, j int) bool { return DefaultOrdering.Less(todos[i], todos[j]) })

	ids := []int64{todos[0].ID, todos[1].ID, todos[2].ID}
	assert.Equal(t, []int64{2, 3, 1}, ids)
}

func TestActorContext(t *testing.T) {
	assert.True(t, ActorFrom(context.Background()).IsAnonymous())

	ctx := WithActor(context.Background(), alice)
	assert.Equal(t, alice, ActorFrom(ctx))
}

func TestIsKnownPermission(t *testing.T) {
	assert.True(t, IsKnownPermission("todo.view_todo"))
	assert.False(t, IsKnownPermission("todo.launch_rocket"))
}
