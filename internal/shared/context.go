package shared

import "context"

// Role describes how far an actor may see across branches.
type Role string

const (
	// RoleBranchRestricted limits the actor to their own branch.
	RoleBranchRestricted Role = "BRANCH_RESTRICTED"
	// RoleUnrestricted allows consolidated or all-branch scope.
	RoleUnrestricted Role = "UNRESTRICTED"
)

// Actor is the already-resolved caller identity. Session and role resolution
// happen upstream; this engine only consumes the result.
type Actor struct {
	ID       int64
	Role     Role
	BranchID *int64
}

// BranchRestricted reports whether the actor must be scoped to one branch.
func (a Actor) BranchRestricted() bool {
	return a.Role == RoleBranchRestricted
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. When none is set an
// unrestricted Actor is returned, so callers that never cross the HTTP layer
// keep consolidated scope.
func ActorFromContext(ctx context.Context) Actor {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok {
		return Actor{Role: RoleUnrestricted}
	}
	return actor
}
