package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

type stubUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserLoader) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func newTestMiddleware(t *testing.T, users ...*models.User) (*Middleware, *TokenIssuer) {
	t.Helper()
	issuer := NewTokenIssuer("test-secret", time.Hour)
	loader := &stubUserLoader{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		loader.users[u.ID] = u
	}
	return NewMiddleware(issuer, loader), issuer
}

func echoActor(t *testing.T, got *policy.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if act, ok := actor.FromContext(r.Context()); ok {
			*got = act
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	var got policy.Actor

	rec := httptest.NewRecorder()
	mw.Authenticate(echoActor(t, &got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.Authenticate(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateLoadsActor(t *testing.T) {
	user := testUser()
	mw, issuer := newTestMiddleware(t, user)
	token, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got policy.Actor
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(echoActor(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != user.ID {
		t.Errorf("actor ID = %s, want %s", got.ID, user.ID)
	}
	if got.Role != policy.RoleAgent {
		t.Errorf("actor role = %s, want agent", got.Role)
	}
}

func TestAuthenticateRejectsDeactivatedAccount(t *testing.T) {
	user := testUser()
	user.IsActive = false
	mw, issuer := newTestMiddleware(t, user)
	token, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestOptionalContinuesAnonymously(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	var authed bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = actor.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.Optional(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if authed {
		t.Error("expected anonymous context for a bad token")
	}
}

func TestRequireRole(t *testing.T) {
	agent := &models.User{ID: uuid.New(), Role: policy.RoleAgent, IsActive: true}
	admin := &models.User{ID: uuid.New(), Role: policy.RolePlatformAdmin, IsActive: true}
	customer := &models.User{ID: uuid.New(), Role: policy.RoleCustomer, IsActive: true}

	gate := RequireRole(policy.RoleAgencyAdmin, policy.RoleAgent)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"agent passes", agent, http.StatusOK},
		{"platform admin passes any gate", admin, http.StatusOK},
		{"customer refused", customer, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(actor.WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			gate(ok).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
