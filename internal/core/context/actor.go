// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"ventra/internal/core/id"
)

// ActorContext contains the authenticated actor for the current request.
// Role is carried as the raw claim string; classification into an access
// tier is done by the access package, never by ad-hoc comparison.
type ActorContext struct {
	UserID id.ID
	Email  string
	Role   string

	// BranchID is the assigned branch. Present only for branch admins.
	BranchID *id.ID
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context, or nil.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns the actor's user ID from context or the nil ID.
func GetActorID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return id.Nil()
}
