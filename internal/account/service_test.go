package account

import (
	"testing"

	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

func testEngine(t *testing.T) *policy.Engine {
	t.Helper()
	reg, err := models.PolicyRegistry()
	if err != nil {
		t.Fatalf("PolicyRegistry: %v", err)
	}
	return policy.NewEngine(reg)
}

func createPayload(l policy.Lockdown, in CreateUserInput) map[string]any {
	return l.Apply(map[string]any{
		policy.FieldRole:      in.Role,
		policy.FieldAgency:    in.AgencyID,
		policy.FieldStaff:     in.IsStaff,
		policy.FieldSuperuser: in.IsSuperuser,
	})
}

func TestBuildUserSuperuserPromotion(t *testing.T) {
	e := testEngine(t)
	admin := policy.Actor{ID: uuid.New(), Role: policy.RolePlatformAdmin}

	lockdown, err := e.LockFields(admin, policy.KindUser, policy.OpCreate)
	if err != nil {
		t.Fatalf("LockFields: %v", err)
	}

	in := CreateUserInput{
		Username:    "ops-root",
		Email:       "Ops-Root@Example.tg",
		Role:        policy.RoleAgent,
		IsSuperuser: true,
	}
	user := buildUser(in, "hash", createPayload(lockdown, in))

	// The flag reassigns the role at creation time, whatever role was asked
	// for alongside it.
	if user.Role != policy.RolePlatformAdmin {
		t.Fatalf("role = %s, want platform_admin", user.Role)
	}
	if !user.IsSuperuser {
		t.Fatalf("superuser flag lost")
	}
	if user.Email != "ops-root@example.tg" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
}

func TestBuildUserAgencyAdminCannotElevate(t *testing.T) {
	e := testEngine(t)
	agencyID := uuid.New()
	admin := policy.Actor{ID: uuid.New(), Role: policy.RoleAgencyAdmin, AgencyID: &agencyID}

	lockdown, err := e.LockFields(admin, policy.KindUser, policy.OpCreate)
	if err != nil {
		t.Fatalf("LockFields: %v", err)
	}

	foreign := uuid.New()
	in := CreateUserInput{
		Username:    "mole",
		Email:       "mole@example.tg",
		Role:        policy.RolePlatformAdmin,
		AgencyID:    &foreign,
		IsSuperuser: true,
	}
	user := buildUser(in, "hash", createPayload(lockdown, in))

	if user.IsSuperuser {
		t.Fatalf("superuser flag survived a sub-platform creator")
	}
	if user.Role == policy.RolePlatformAdmin {
		t.Fatalf("platform role assigned by an agency admin")
	}
	if user.AgencyID == nil || *user.AgencyID != agencyID {
		t.Fatalf("agency not forced to the creator's own: %v", user.AgencyID)
	}
}
