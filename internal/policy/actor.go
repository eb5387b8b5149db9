// Package policy holds the pure authorization decisions: which todos an actor
// can see, which it can change, and which user flags it may set.
package policy

import (
	"context"

	"github.com/wuwenbin0122/tasklist/internal/models"
)

// Actor is a snapshot of the party issuing a request.
type Actor struct {
	ID              int64
	Username        string
	IsAuthenticated bool
	IsStaff         bool
	IsSuperuser     bool
}

// Anonymous returns the actor for unauthenticated requests.
func Anonymous() Actor {
	return Actor{}
}

// ActorFor snapshots an authenticated user.
func ActorFor(user models.User) Actor {
	return Actor{
		ID:              user.ID,
		Username:        user.Username,
		IsAuthenticated: true,
		IsStaff:         user.IsStaff,
		IsSuperuser:     user.IsSuperuser,
	}
}

// IsAnonymous reports whether the actor is unauthenticated.
func (a Actor) IsAnonymous() bool {
	return !a.IsAuthenticated
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the request actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the request actor, or Anonymous when none is set.
func ActorFrom(ctx context.Context) Actor {
	if ctx == nil {
		return Anonymous()
	}
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor
	}
	return Anonymous()
}
