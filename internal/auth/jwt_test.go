package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

func testUser() *models.User {
	agencyID := uuid.New()
	return &models.User{
		ID:       uuid.New(),
		AgencyID: &agencyID,
		Role:     policy.RoleAgent,
		Username: "kofi",
		Email:    "kofi@example.com",
		IsActive: true,
	}
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := testUser()

	token, expires, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !expires.After(time.Now()) {
		t.Fatal("expiry not in the future")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Sub != user.ID.String() {
		t.Errorf("sub = %s, want %s", claims.Sub, user.ID)
	}
	if claims.Role != policy.RoleAgent {
		t.Errorf("role = %s, want agent", claims.Role)
	}
	if claims.AgencyID != user.AgencyID.String() {
		t.Errorf("agency_id = %s, want %s", claims.AgencyID, user.AgencyID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret-a", time.Hour).Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, _, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.Parse(token); err == nil {
			t.Errorf("Parse(%q): expected error", token)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2secret" {
		t.Fatal("hash equals plaintext")
	}

	if err := VerifyPassword(hash, "hunter2secret"); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Error("VerifyPassword accepted a wrong password")
	}
}
