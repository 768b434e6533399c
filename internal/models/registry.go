package models

import "github.com/marxist91/togoestate/internal/policy"

// PolicyRegistry declares the ownership model of every entity the cockpit
// exposes. This is the single place scoping is configured; services and
// handlers only ever consult the engine built from it.
//
// Granularity decisions: listings scope agents to their whole agency (an
// agent sees agency-mates' listings but may only mutate their own), users and
// appointments scope agents to records they own, and the customer-side
// entities (favorites, saved searches, history, notifications) are visible
// solely to their counterparty.
func PolicyRegistry() (*policy.Registry, error) {
	return policy.NewRegistry(
		policy.Descriptor{
			Kind:           policy.KindUser,
			AgentScope:     policy.GranularityOwner,
			HasTenant:      true,
			HasOwner:       true,
			HasCustomer:    true,
			TenantColumn:   "agency_id",
			OwnerColumn:    "id",
			CustomerColumn: "id",
		},
		policy.Descriptor{
			Kind:         policy.KindAgency,
			AgentScope:   policy.GranularityAgency,
			HasTenant:    true,
			TenantColumn: "id",
		},
		policy.Descriptor{
			Kind:         policy.KindListing,
			AgentScope:   policy.GranularityAgency,
			HasTenant:    true,
			HasOwner:     true,
			TenantColumn: "agency_id",
			OwnerColumn:  "owner_id",
		},
		policy.Descriptor{
			Kind:           policy.KindAppointment,
			AgentScope:     policy.GranularityOwner,
			HasTenant:      true,
			HasOwner:       true,
			HasCustomer:    true,
			TenantColumn:   "agency_id",
			OwnerColumn:    "agent_id",
			CustomerColumn: "customer_id",
		},
		policy.Descriptor{
			Kind:           policy.KindFavorite,
			AgentScope:     policy.GranularityOwner,
			HasCustomer:    true,
			CustomerColumn: "user_id",
		},
		policy.Descriptor{
			Kind:           policy.KindSavedSearch,
			AgentScope:     policy.GranularityOwner,
			HasCustomer:    true,
			CustomerColumn: "user_id",
		},
		policy.Descriptor{
			Kind:           policy.KindSearchHistory,
			AgentScope:     policy.GranularityOwner,
			HasCustomer:    true,
			CustomerColumn: "user_id",
		},
		policy.Descriptor{
			Kind:           policy.KindNotification,
			AgentScope:     policy.GranularityOwner,
			HasCustomer:    true,
			CustomerColumn: "user_id",
		},
	)
}

// RegisteredKinds lists every kind the API serves; main validates the
// registry against it at boot so a missing declaration aborts startup.
func RegisteredKinds() []policy.Kind {
	return []policy.Kind{
		policy.KindUser,
		policy.KindAgency,
		policy.KindListing,
		policy.KindAppointment,
		policy.KindFavorite,
		policy.KindSavedSearch,
		policy.KindSearchHistory,
		policy.KindNotification,
	}
}
