package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting user identifier in context. Core calls
// take the actor explicitly instead of pulling it from ambient state.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user identifier, empty when absent.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}
