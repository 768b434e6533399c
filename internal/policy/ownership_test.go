package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewRegistryRejectsBadDescriptors(t *testing.T) {
	cases := []struct {
		name string
		desc Descriptor
	}{
		{"missing kind", Descriptor{HasTenant: true, TenantColumn: "agency_id"}},
		{"tenant without column", Descriptor{Kind: KindListing, HasTenant: true}},
		{"owner without column", Descriptor{Kind: KindListing, HasOwner: true, AgentScope: GranularityOwner}},
		{"customer without column", Descriptor{Kind: KindFavorite, AgentScope: GranularityOwner, HasCustomer: true}},
		{"agency granularity without tenant", Descriptor{Kind: KindListing, AgentScope: GranularityAgency}},
	}
	for _, tc := range cases {
		if _, err := NewRegistry(tc.desc); err == nil {
			t.Fatalf("%s: expected construction to fail", tc.name)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	d := Descriptor{Kind: KindFavorite, AgentScope: GranularityOwner, HasCustomer: true, CustomerColumn: "user_id"}
	if _, err := NewRegistry(d, d); err == nil {
		t.Fatalf("duplicate kind accepted")
	}
}

func TestRegistryValidateFailsFast(t *testing.T) {
	reg := testRegistry()
	if err := reg.Validate(KindListing, KindUser, KindAppointment); err != nil {
		t.Fatalf("Validate on registered kinds: %v", err)
	}
	err := reg.Validate(KindListing, KindNotification)
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity for missing kind, got %v", err)
	}
}

func TestAccessorsTolerateUnrelatedTypes(t *testing.T) {
	// Entities without a given relation simply yield nil, never panic.
	type plain struct{}
	if TenantOf(plain{}) != nil || OwnerOf(plain{}) != nil || CustomerOf(plain{}) != nil {
		t.Fatalf("accessors should return nil for unrelated types")
	}
	if entityID(plain{}) != uuid.Nil {
		t.Fatalf("entityID should be Nil for unrelated types")
	}
}
