package actor

import (
	"context"

	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

type contextKey string

const userKey contextKey = "user"

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil when the request is
// anonymous.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// FromContext projects the authenticated user into a policy actor. The
// boolean is false for anonymous requests; anonymous callers must never reach
// the visibility resolver.
func FromContext(ctx context.Context) (policy.Actor, bool) {
	u := UserFromContext(ctx)
	if u == nil {
		return policy.Actor{}, false
	}
	return u.Actor(), true
}
