package internal

import (
	"context"
)

// Actor identifies the authenticated caller on a request.
type Actor struct {
	Email string
	Role  string
}

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type ctxKey string

const contextActorKey ctxKey = "actor"

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	if actor, ok := ctx.Value(contextActorKey).(Actor); ok {
		return actor, true
	}
	return Actor{}, false
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextActorKey, actor)
}
