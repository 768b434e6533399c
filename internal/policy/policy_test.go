package policy

import (
	"github.com/google/uuid"
)

// Test fixtures shared by the policy tests: a minimal registry and record
// types mirroring the shapes the real entities expose.

type testListing struct {
	ID     uuid.UUID
	Agency *uuid.UUID
	Owner  *uuid.UUID
}

func (l testListing) EntityID() uuid.UUID  { return l.ID }
func (l testListing) TenantRef() *uuid.UUID { return l.Agency }
func (l testListing) OwnerRef() *uuid.UUID  { return l.Owner }

type testUser struct {
	ID     uuid.UUID
	Agency *uuid.UUID
}

func (u testUser) EntityID() uuid.UUID    { return u.ID }
func (u testUser) TenantRef() *uuid.UUID   { return u.Agency }
func (u testUser) OwnerRef() *uuid.UUID    { return &u.ID }
func (u testUser) CustomerRef() *uuid.UUID { return &u.ID }

type testAppointment struct {
	ID       uuid.UUID
	Agency   *uuid.UUID
	Agent    *uuid.UUID
	Customer *uuid.UUID
}

func (a testAppointment) EntityID() uuid.UUID    { return a.ID }
func (a testAppointment) TenantRef() *uuid.UUID    { return a.Agency }
func (a testAppointment) OwnerRef() *uuid.UUID     { return a.Agent }
func (a testAppointment) CustomerRef() *uuid.UUID  { return a.Customer }

func testRegistry() *Registry {
	reg, err := NewRegistry(
		Descriptor{
			Kind:         KindListing,
			AgentScope:   GranularityAgency,
			HasTenant:    true,
			HasOwner:     true,
			TenantColumn: "agency_id",
			OwnerColumn:  "owner_id",
		},
		Descriptor{
			Kind:           KindUser,
			AgentScope:     GranularityOwner,
			HasTenant:      true,
			HasOwner:       true,
			HasCustomer:    true,
			TenantColumn:   "agency_id",
			OwnerColumn:    "id",
			CustomerColumn: "id",
		},
		Descriptor{
			Kind:           KindAppointment,
			AgentScope:     GranularityOwner,
			HasTenant:      true,
			HasOwner:       true,
			HasCustomer:    true,
			TenantColumn:   "agency_id",
			OwnerColumn:    "agent_id",
			CustomerColumn: "customer_id",
		},
		Descriptor{
			Kind:           KindFavorite,
			AgentScope:     GranularityOwner,
			HasCustomer:    true,
			CustomerColumn: "user_id",
		},
	)
	if err != nil {
		panic(err)
	}
	return reg
}

func testEngine() *Engine {
	return NewEngine(testRegistry())
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func platformAdmin() Actor {
	return Actor{ID: uuid.New(), Role: RolePlatformAdmin}
}

func agencyAdmin(agency uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: RoleAgencyAdmin, AgencyID: ptr(agency)}
}

func agent(agency uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: RoleAgent, AgencyID: ptr(agency)}
}

func customer() Actor {
	return Actor{ID: uuid.New(), Role: RoleCustomer}
}
