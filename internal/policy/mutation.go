package policy

// Operation is a mutation on an entity.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Decision is the authorizer's output for one request: whether the mutation
// may proceed, the visibility predicate it was judged under, and the field
// constraints to apply to the payload. It is recomputed per request and never
// persisted.
type Decision struct {
	Allowed  bool
	Scope    Scope
	Lockdown Lockdown
}

// Authorize decides whether an actor may perform an operation on an entity.
// existing is nil for creation. Any rule not matched denies.
func (e *Engine) Authorize(actor Actor, kind Kind, existing any, op Operation) (Decision, error) {
	desc, err := e.registry.Resolve(kind)
	if err != nil {
		return Decision{}, err
	}
	scope, err := e.ScopeFor(actor, kind)
	if err != nil {
		return Decision{}, err
	}
	lockdown, err := e.LockFields(actor, kind, op)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{Scope: scope, Lockdown: lockdown}

	switch op {
	case OpCreate:
		decision.Allowed = e.allowCreate(actor, desc)
	case OpUpdate:
		decision.Allowed = e.allowUpdate(actor, desc, existing)
	case OpDelete:
		decision.Allowed = e.allowDelete(actor, desc, existing)
	}
	return decision, nil
}

func (e *Engine) allowCreate(actor Actor, desc Descriptor) bool {
	if actor.IsPlatformAdmin() {
		return true
	}
	// Staff with no agency assignment cannot create tenant-scoped records:
	// the lockdown would force a null tenant reference.
	if desc.HasTenant && actor.AgencyID == nil && (actor.Role == RoleAgencyAdmin || actor.Role == RoleAgent) {
		return false
	}
	if desc.Kind == KindUser {
		// Agents may not create other users.
		return actor.Role == RoleAgencyAdmin
	}
	if desc.HasTenant && actor.Allows(RoleAgencyAdmin, RoleAgent) {
		return true
	}
	// Customer-bound entities are created by the customer themself.
	if desc.HasCustomer && actor.Role == RoleCustomer {
		return true
	}
	return false
}

func (e *Engine) allowUpdate(actor Actor, desc Descriptor, existing any) bool {
	if existing == nil {
		return false
	}
	if actor.IsPlatformAdmin() {
		return true
	}
	switch actor.Role {
	case RoleAgencyAdmin:
		tenant := TenantOf(existing)
		return actor.AgencyID != nil && tenant != nil && *tenant == *actor.AgencyID
	case RoleAgent:
		// Strict self-ownership: agents cannot edit agency-mates' records
		// even within the same tenant.
		owner := OwnerOf(existing)
		return owner != nil && *owner == actor.ID
	case RoleCustomer:
		if !desc.HasCustomer {
			return false
		}
		customer := CustomerOf(existing)
		return customer != nil && *customer == actor.ID
	}
	return false
}

func (e *Engine) allowDelete(actor Actor, desc Descriptor, existing any) bool {
	if existing == nil {
		return false
	}
	if actor.IsPlatformAdmin() {
		return true
	}
	if desc.Kind == KindUser {
		// Only an agency admin may delete users below platform level, never
		// themself: an agency must not lose its sole admin by accident.
		if actor.Role != RoleAgencyAdmin {
			return false
		}
		if entityID(existing) == actor.ID {
			return false
		}
		tenant := TenantOf(existing)
		return actor.AgencyID != nil && tenant != nil && *tenant == *actor.AgencyID
	}
	switch actor.Role {
	case RoleAgencyAdmin:
		tenant := TenantOf(existing)
		return actor.AgencyID != nil && tenant != nil && *tenant == *actor.AgencyID
	case RoleAgent:
		owner := OwnerOf(existing)
		return owner != nil && *owner == actor.ID
	case RoleCustomer:
		if !desc.HasCustomer {
			return false
		}
		customer := CustomerOf(existing)
		return customer != nil && *customer == actor.ID
	}
	return false
}
