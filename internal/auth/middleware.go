package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/models"
)

// UserLoader fetches a user by id for request authentication.
type UserLoader interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Middleware authenticates requests via Bearer tokens and loads the
// acting user into the request context.
type Middleware struct {
	issuer *TokenIssuer
	users  UserLoader
}

func NewMiddleware(issuer *TokenIssuer, users UserLoader) *Middleware {
	return &Middleware{issuer: issuer, users: users}
}

// Authenticate rejects requests without a valid token or with a token for a
// deactivated account.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := m.issuer.Parse(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := m.users.UserByID(r.Context(), userID)
		if err != nil || user == nil {
			writeError(w, http.StatusUnauthorized, "account not found")
			return
		}
		if !user.IsActive {
			writeError(w, http.StatusForbidden, "account deactivated")
			return
		}

		next.ServeHTTP(w, r.WithContext(actor.WithUser(r.Context(), user)))
	})
}

// Optional loads the user when a valid token is present and continues
// anonymously otherwise. Used on public surfaces that personalize for
// logged-in users (e.g. search history).
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.issuer.Parse(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.users.UserByID(r.Context(), userID)
		if err != nil || user == nil || !user.IsActive {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(actor.WithUser(r.Context(), user)))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
