package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestScopeForPlatformAdminSeesEverything(t *testing.T) {
	e := testEngine()
	admin := platformAdmin()
	su := Actor{ID: uuid.New(), Role: RoleCustomer, Superuser: true}

	for _, kind := range []Kind{KindListing, KindUser, KindAppointment, KindFavorite} {
		for _, actor := range []Actor{admin, su} {
			scope, err := e.ScopeFor(actor, kind)
			if err != nil {
				t.Fatalf("ScopeFor(%s): %v", kind, err)
			}
			if scope.Kind != ScopeAll {
				t.Fatalf("ScopeFor(%s) = %v, want ScopeAll", kind, scope.Kind)
			}
		}
	}
}

func TestScopeForAgencyAdminTenantMatch(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	agencyY := uuid.New()
	admin := agencyAdmin(agencyX)

	scope, err := e.ScopeFor(admin, KindListing)
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	inX := testListing{ID: uuid.New(), Agency: ptr(agencyX)}
	inY := testListing{ID: uuid.New(), Agency: ptr(agencyY)}
	unscoped := testListing{ID: uuid.New()}

	if !scope.Matches(inX) {
		t.Fatalf("agency admin must see own-tenant listing")
	}
	if scope.Matches(inY) {
		t.Fatalf("cross-agency listing leaked to agency admin")
	}
	if scope.Matches(unscoped) {
		t.Fatalf("nil-tenant listing must never match a tenant scope")
	}
}

func TestScopeForAgencyAdminWithoutAgencySeesNothing(t *testing.T) {
	e := testEngine()
	orphan := Actor{ID: uuid.New(), Role: RoleAgencyAdmin}

	scope, err := e.ScopeFor(orphan, KindListing)
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	if !scope.IsEmpty() {
		t.Fatalf("unassigned agency admin must resolve to the empty set, got %v", scope.Kind)
	}
	if scope.Matches(testListing{ID: uuid.New(), Agency: ptr(uuid.New())}) {
		t.Fatalf("empty scope matched a record")
	}
}

func TestScopeForAgentGranularityIsPerEntity(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	bob := agent(agencyX)
	alice := agent(agencyX)

	bobListing := testListing{ID: uuid.New(), Agency: ptr(agencyX), Owner: ptr(bob.ID)}
	aliceListing := testListing{ID: uuid.New(), Agency: ptr(agencyX), Owner: ptr(alice.ID)}
	otherAgency := testListing{ID: uuid.New(), Agency: ptr(uuid.New()), Owner: ptr(uuid.New())}

	// Listings scope at agency granularity: Bob sees all of X's listings.
	scope, err := e.ScopeFor(bob, KindListing)
	if err != nil {
		t.Fatalf("ScopeFor listing: %v", err)
	}
	if !scope.Matches(bobListing) || !scope.Matches(aliceListing) {
		t.Fatalf("agent must see the whole agency's listings")
	}
	if scope.Matches(otherAgency) {
		t.Fatalf("agent saw a listing outside their agency")
	}

	// The user list scopes at owner granularity: an agent sees only themself.
	userScope, err := e.ScopeFor(bob, KindUser)
	if err != nil {
		t.Fatalf("ScopeFor user: %v", err)
	}
	if !userScope.Matches(testUser{ID: bob.ID, Agency: ptr(agencyX)}) {
		t.Fatalf("agent must see their own user record")
	}
	if userScope.Matches(testUser{ID: alice.ID, Agency: ptr(agencyX)}) {
		t.Fatalf("agent saw an agency-mate's user record")
	}
}

func TestScopeForCustomerCounterparty(t *testing.T) {
	e := testEngine()
	cust := customer()

	// No counterparty relation on listings: customers resolve to nothing.
	scope, err := e.ScopeFor(cust, KindListing)
	if err != nil {
		t.Fatalf("ScopeFor listing: %v", err)
	}
	if !scope.IsEmpty() {
		t.Fatalf("customer listing scope should be empty, got %v", scope.Kind)
	}

	// Appointments name the customer: only theirs match.
	apptScope, err := e.ScopeFor(cust, KindAppointment)
	if err != nil {
		t.Fatalf("ScopeFor appointment: %v", err)
	}
	mine := testAppointment{ID: uuid.New(), Customer: ptr(cust.ID)}
	theirs := testAppointment{ID: uuid.New(), Customer: ptr(uuid.New())}
	if !apptScope.Matches(mine) {
		t.Fatalf("customer must see their own appointment")
	}
	if apptScope.Matches(theirs) {
		t.Fatalf("customer saw someone else's appointment")
	}
}

func TestScopeForUnknownKind(t *testing.T) {
	e := testEngine()
	_, err := e.ScopeFor(platformAdmin(), Kind("lead"))
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestScopeSQLFragments(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()

	scope, err := e.ScopeFor(agencyAdmin(agencyX), KindListing)
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	frag, args := scope.SQL(3)
	if frag != "agency_id = $3" {
		t.Fatalf("unexpected fragment %q", frag)
	}
	if len(args) != 1 || args[0] != agencyX {
		t.Fatalf("unexpected args %v", args)
	}

	all, _ := e.ScopeFor(platformAdmin(), KindListing)
	if frag, args := all.SQL(1); frag != "TRUE" || args != nil {
		t.Fatalf("ScopeAll should render TRUE with no args, got %q %v", frag, args)
	}

	none, _ := e.ScopeFor(customer(), KindListing)
	if frag, _ := none.SQL(1); frag != "FALSE" {
		t.Fatalf("ScopeNone should render FALSE, got %q", frag)
	}
}
