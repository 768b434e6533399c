package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// ScopeKind classifies a visibility predicate.
type ScopeKind int

const (
	// ScopeNone matches no records.
	ScopeNone ScopeKind = iota
	// ScopeAll matches every record.
	ScopeAll
	// ScopeTenant matches records whose tenant equals the actor's agency.
	ScopeTenant
	// ScopeOwner matches records owned by the actor.
	ScopeOwner
	// ScopeCustomer matches records naming the actor as customer counterparty.
	ScopeCustomer
)

// Scope is the visibility predicate for one (actor, entity kind) pair. It can
// be evaluated in memory against a loaded entity or rendered as a SQL WHERE
// fragment by the storage layer.
type Scope struct {
	Kind     ScopeKind
	TenantID uuid.UUID
	ActorID  uuid.UUID

	desc Descriptor
}

// Engine evaluates visibility, mutation and field-lockdown decisions over a
// fixed entity registry. It holds no per-request state; all methods are pure
// over their inputs.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// ScopeFor resolves the visibility predicate for an actor over an entity
// kind. Rules are evaluated in strict order, first match winning:
// platform admin sees everything; an agency admin sees their tenant (or
// nothing while unassigned); an agent sees per the declared granularity;
// a customer sees only records naming them as counterparty. Unauthenticated
// callers never reach this resolver.
func (e *Engine) ScopeFor(actor Actor, kind Kind) (Scope, error) {
	desc, err := e.registry.Resolve(kind)
	if err != nil {
		return Scope{}, err
	}

	switch {
	case actor.IsPlatformAdmin():
		return Scope{Kind: ScopeAll, desc: desc}, nil

	case actor.Role == RoleAgencyAdmin:
		if actor.AgencyID == nil || !desc.HasTenant {
			return Scope{Kind: ScopeNone, desc: desc}, nil
		}
		return Scope{Kind: ScopeTenant, TenantID: *actor.AgencyID, desc: desc}, nil

	case actor.Role == RoleAgent:
		if desc.AgentScope == GranularityAgency {
			if actor.AgencyID == nil {
				return Scope{Kind: ScopeNone, desc: desc}, nil
			}
			return Scope{Kind: ScopeTenant, TenantID: *actor.AgencyID, desc: desc}, nil
		}
		if desc.HasOwner {
			return Scope{Kind: ScopeOwner, ActorID: actor.ID, desc: desc}, nil
		}
		return Scope{Kind: ScopeNone, desc: desc}, nil

	default:
		if desc.HasCustomer {
			return Scope{Kind: ScopeCustomer, ActorID: actor.ID, desc: desc}, nil
		}
		return Scope{Kind: ScopeNone, desc: desc}, nil
	}
}

// Matches evaluates the predicate against a loaded entity.
func (s Scope) Matches(entity any) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeTenant:
		tenant := TenantOf(entity)
		return tenant != nil && *tenant == s.TenantID
	case ScopeOwner:
		owner := OwnerOf(entity)
		return owner != nil && *owner == s.ActorID
	case ScopeCustomer:
		customer := CustomerOf(entity)
		return customer != nil && *customer == s.ActorID
	default:
		return false
	}
}

// SQL renders the predicate as a WHERE fragment with positional arguments
// starting at argIdx. ScopeAll renders TRUE, ScopeNone renders FALSE, so the
// fragment can always be AND-ed into a query.
func (s Scope) SQL(argIdx int) (string, []any) {
	switch s.Kind {
	case ScopeAll:
		return "TRUE", nil
	case ScopeTenant:
		return fmt.Sprintf("%s = $%d", s.desc.TenantColumn, argIdx), []any{s.TenantID}
	case ScopeOwner:
		return fmt.Sprintf("%s = $%d", s.desc.OwnerColumn, argIdx), []any{s.ActorID}
	case ScopeCustomer:
		return fmt.Sprintf("%s = $%d", s.desc.CustomerColumn, argIdx), []any{s.ActorID}
	default:
		return "FALSE", nil
	}
}

// IsEmpty reports whether the predicate can never match.
func (s Scope) IsEmpty() bool {
	return s.Kind == ScopeNone
}
