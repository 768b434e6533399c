package auth

import (
	"net/http"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/policy"
)

// RequireRole gates a route subtree to the given roles. Platform admins pass
// every gate. Fine-grained record-level decisions stay with the services;
// this only keeps the wrong audience off a surface entirely.
func RequireRole(roles ...policy.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			act, ok := actor.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !act.Allows(roles...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
