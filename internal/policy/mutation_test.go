package policy

import (
	"testing"

	"github.com/google/uuid"
)

func TestAuthorizeDefaultDeny(t *testing.T) {
	e := testEngine()
	cust := customer()

	d, err := e.Authorize(cust, KindListing, nil, OpCreate)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed {
		t.Fatalf("customer allowed to create a listing")
	}

	d, err = e.Authorize(cust, KindListing, testListing{ID: uuid.New()}, Operation("publish"))
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed {
		t.Fatalf("unknown operation must deny")
	}
}

func TestAuthorizeCreateRules(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()

	cases := []struct {
		name  string
		actor Actor
		kind  Kind
		want  bool
	}{
		{"platform admin creates listing", platformAdmin(), KindListing, true},
		{"agency admin creates listing", agencyAdmin(agencyX), KindListing, true},
		{"agent creates listing", agent(agencyX), KindListing, true},
		{"customer creates listing", customer(), KindListing, false},
		{"platform admin creates user", platformAdmin(), KindUser, true},
		{"agency admin creates user", agencyAdmin(agencyX), KindUser, true},
		{"agent creates user", agent(agencyX), KindUser, false},
		{"customer creates user", customer(), KindUser, false},
		{"customer creates appointment", customer(), KindAppointment, true},
		{"customer creates favorite", customer(), KindFavorite, true},
	}
	for _, tc := range cases {
		d, err := e.Authorize(tc.actor, tc.kind, nil, OpCreate)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if d.Allowed != tc.want {
			t.Fatalf("%s: allowed=%v, want %v", tc.name, d.Allowed, tc.want)
		}
	}
}

func TestAuthorizeCreateUnassignedStaff(t *testing.T) {
	e := testEngine()

	// Staff without an agency cannot create tenant-scoped records: the
	// lockdown would force a null tenant reference into the row.
	orphanAdmin := Actor{ID: uuid.New(), Role: RoleAgencyAdmin}
	orphanAgent := Actor{ID: uuid.New(), Role: RoleAgent}

	for _, kind := range []Kind{KindListing, KindUser} {
		for _, actor := range []Actor{orphanAdmin, orphanAgent} {
			d, err := e.Authorize(actor, kind, nil, OpCreate)
			if err != nil {
				t.Fatalf("Authorize %s: %v", kind, err)
			}
			if d.Allowed {
				t.Fatalf("unassigned %s allowed to create %s", actor.Role, kind)
			}
		}
	}

	// Customers carry no tenant; their creates derive the tenant from the
	// target record, not the actor.
	if d, _ := e.Authorize(customer(), KindAppointment, nil, OpCreate); !d.Allowed {
		t.Fatalf("customer denied appointment creation")
	}
}

func TestAuthorizeUpdateAgentStrictOwnership(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	bob := agent(agencyX)
	alice := agent(agencyX)

	aliceListing := testListing{ID: uuid.New(), Agency: ptr(agencyX), Owner: ptr(alice.ID)}
	bobListing := testListing{ID: uuid.New(), Agency: ptr(agencyX), Owner: ptr(bob.ID)}

	// Bob sees Alice's listing in the agency-wide list scope...
	scope, _ := e.ScopeFor(bob, KindListing)
	if !scope.Matches(aliceListing) {
		t.Fatalf("agency-wide scope should include agency-mate's listing")
	}
	// ...but may not update or delete it.
	for _, op := range []Operation{OpUpdate, OpDelete} {
		d, err := e.Authorize(bob, KindListing, aliceListing, op)
		if err != nil {
			t.Fatalf("Authorize %s: %v", op, err)
		}
		if d.Allowed {
			t.Fatalf("agent allowed to %s an agency-mate's listing", op)
		}
	}
	d, _ := e.Authorize(bob, KindListing, bobListing, OpUpdate)
	if !d.Allowed {
		t.Fatalf("agent denied update on their own listing")
	}
	d, _ = e.Authorize(bob, KindListing, bobListing, OpDelete)
	if !d.Allowed {
		t.Fatalf("agent denied delete on their own listing")
	}
}

func TestAuthorizeUpdateTenantMatch(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	admin := agencyAdmin(agencyX)

	own := testListing{ID: uuid.New(), Agency: ptr(agencyX)}
	foreign := testListing{ID: uuid.New(), Agency: ptr(uuid.New())}
	unscoped := testListing{ID: uuid.New()}

	if d, _ := e.Authorize(admin, KindListing, own, OpUpdate); !d.Allowed {
		t.Fatalf("agency admin denied update in own tenant")
	}
	if d, _ := e.Authorize(admin, KindListing, foreign, OpUpdate); d.Allowed {
		t.Fatalf("agency admin allowed update across tenants")
	}
	if d, _ := e.Authorize(admin, KindListing, unscoped, OpUpdate); d.Allowed {
		t.Fatalf("agency admin allowed update on nil-tenant record")
	}

	orphan := Actor{ID: uuid.New(), Role: RoleAgencyAdmin}
	if d, _ := e.Authorize(orphan, KindListing, own, OpUpdate); d.Allowed {
		t.Fatalf("unassigned agency admin allowed a scoped write")
	}
}

func TestAuthorizeDeleteSelfProtection(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	admin := agencyAdmin(agencyX)

	self := testUser{ID: admin.ID, Agency: ptr(agencyX)}
	other := testUser{ID: uuid.New(), Agency: ptr(agencyX)}

	d, err := e.Authorize(admin, KindUser, self, OpDelete)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed {
		t.Fatalf("agency admin allowed to delete themself")
	}
	if d, _ := e.Authorize(admin, KindUser, other, OpDelete); !d.Allowed {
		t.Fatalf("agency admin denied deleting another user in their agency")
	}
}

func TestAuthorizeAgentNeverDeletesUsers(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	bob := agent(agencyX)

	self := testUser{ID: bob.ID, Agency: ptr(agencyX)}
	mate := testUser{ID: uuid.New(), Agency: ptr(agencyX)}

	for _, target := range []testUser{self, mate} {
		d, err := e.Authorize(bob, KindUser, target, OpDelete)
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
		if d.Allowed {
			t.Fatalf("agent allowed to delete user %s", target.ID)
		}
	}
}

func TestAuthorizeCustomerOwnRecords(t *testing.T) {
	e := testEngine()
	cust := customer()

	mine := testAppointment{ID: uuid.New(), Customer: ptr(cust.ID)}
	theirs := testAppointment{ID: uuid.New(), Customer: ptr(uuid.New())}

	if d, _ := e.Authorize(cust, KindAppointment, mine, OpUpdate); !d.Allowed {
		t.Fatalf("customer denied update on own appointment")
	}
	if d, _ := e.Authorize(cust, KindAppointment, theirs, OpUpdate); d.Allowed {
		t.Fatalf("customer allowed update on someone else's appointment")
	}
}

func TestAuthorizeIdempotent(t *testing.T) {
	e := testEngine()
	agencyX := uuid.New()
	admin := agencyAdmin(agencyX)
	listing := testListing{ID: uuid.New(), Agency: ptr(agencyX), Owner: ptr(uuid.New())}

	first, err := e.Authorize(admin, KindListing, listing, OpUpdate)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	second, err := e.Authorize(admin, KindListing, listing, OpUpdate)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if first.Allowed != second.Allowed || first.Scope.Kind != second.Scope.Kind {
		t.Fatalf("identical inputs produced different decisions: %+v vs %+v", first, second)
	}
}

func TestAuthorizeMissingEntityDeniesWrites(t *testing.T) {
	e := testEngine()
	admin := agencyAdmin(uuid.New())
	for _, op := range []Operation{OpUpdate, OpDelete} {
		d, err := e.Authorize(admin, KindListing, nil, op)
		if err != nil {
			t.Fatalf("Authorize %s: %v", op, err)
		}
		if d.Allowed {
			t.Fatalf("%s with no existing entity must deny", op)
		}
	}
}
