package policy

import "github.com/wuwenbin0122/tasklist/internal/models"

// Capability is a named check over an actor snapshot.
type Capability func(Actor) bool

// CanViewAll grants the unscoped todo view and the admin surfaces.
func CanViewAll(a Actor) bool {
	return a.IsAuthenticated && (a.IsStaff || a.IsSuperuser)
}

// CanModifyFlags grants setting is_active and is_staff on any account.
func CanModifyFlags(a Actor) bool {
	return a.IsAuthenticated && (a.IsStaff || a.IsSuperuser)
}

// CanEscalatePrivilege grants setting is_superuser on any account.
func CanEscalatePrivilege(a Actor) bool {
	return a.IsAuthenticated && a.IsSuperuser
}

// UserFlag names a privileged boolean on a user account.
type UserFlag string

const (
	FlagActive    UserFlag = "is_active"
	FlagStaff     UserFlag = "is_staff"
	FlagSuperuser UserFlag = "is_superuser"
)

var flagCapabilities = map[UserFlag]Capability{
	FlagActive:    CanModifyFlags,
	FlagStaff:     CanModifyFlags,
	FlagSuperuser: CanEscalatePrivilege,
}

// CanSetUserFlag reports whether actor may set flag on target. The decision
// depends on the actor's role only; unknown flags are never settable.
func CanSetUserFlag(actor Actor, target models.User, flag UserFlag) bool {
	capability, ok := flagCapabilities[flag]
	if !ok {
		return false
	}
	return capability(actor)
}

// CanModifyTodo reports whether actor may update, toggle or delete todo. An
// anonymous actor owns anonymous todos.
func CanModifyTodo(actor Actor, todo models.Todo) bool {
	if CanViewAll(actor) {
		return true
	}
	if actor.IsAnonymous() {
		return todo.OwnerID == nil
	}
	return todo.OwnerID != nil && *todo.OwnerID == actor.ID
}

// ResolveOwnerOnCreate returns the owner a new todo is attributed to: nil for
// anonymous actors, the actor's id otherwise.
func ResolveOwnerOnCreate(actor Actor) *int64 {
	if actor.IsAnonymous() {
		return nil
	}
	id := actor.ID
	return &id
}
