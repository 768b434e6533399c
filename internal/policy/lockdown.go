package policy

// Field names shared between the lockdown rules and the payload sanitizers.
// They match the JSON payload keys of the admin API.
const (
	FieldAgency    = "agency_id"
	FieldOwner     = "owner_id"
	FieldCustomer  = "customer_id"
	FieldRole      = "role"
	FieldSuperuser = "is_superuser"
	FieldStaff     = "is_staff"
	FieldGroups    = "groups"
)

// Lockdown constrains the fields of a mutation payload for one actor,
// entity kind and operation:
//
//   - ReadOnly fields are stripped from the payload entirely.
//   - Forced fields are overwritten with actor-derived values regardless of
//     what the payload supplied.
//   - Defaults fill fields only when the payload left them empty.
//   - Denied lists concrete values an actor may never assign to a field;
//     a denied value is stripped as if the field were absent.
type Lockdown struct {
	ReadOnly map[string]struct{}
	Forced   map[string]any
	Defaults map[string]any
	Denied   map[string]map[any]struct{}
}

func newLockdown() Lockdown {
	return Lockdown{
		ReadOnly: map[string]struct{}{},
		Forced:   map[string]any{},
		Defaults: map[string]any{},
		Denied:   map[string]map[any]struct{}{},
	}
}

func (l Lockdown) readOnly(fields ...string) Lockdown {
	for _, f := range fields {
		l.ReadOnly[f] = struct{}{}
	}
	return l
}

func (l Lockdown) force(field string, value any) Lockdown {
	l.Forced[field] = value
	return l
}

func (l Lockdown) defaultTo(field string, value any) Lockdown {
	l.Defaults[field] = value
	return l
}

func (l Lockdown) deny(field string, values ...any) Lockdown {
	set, ok := l.Denied[field]
	if !ok {
		set = map[any]struct{}{}
		l.Denied[field] = set
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
	return l
}

// IsReadOnly reports whether the actor may not touch the field.
func (l Lockdown) IsReadOnly(field string) bool {
	_, ok := l.ReadOnly[field]
	return ok
}

// ForcedValue returns the actor-derived value a field must take, if any.
func (l Lockdown) ForcedValue(field string) (any, bool) {
	v, ok := l.Forced[field]
	return v, ok
}

// DefaultValue returns the fill-in value for a field left empty by the payload.
func (l Lockdown) DefaultValue(field string) (any, bool) {
	v, ok := l.Defaults[field]
	return v, ok
}

// ValueDenied reports whether the actor may never assign value to field.
func (l Lockdown) ValueDenied(field string, value any) bool {
	set, ok := l.Denied[field]
	if !ok {
		return false
	}
	_, denied := set[value]
	return denied
}

// Apply sanitizes a raw payload: read-only and denied entries are dropped,
// forced values overwrite, defaults fill gaps. The input map is not modified.
func (l Lockdown) Apply(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+len(l.Forced)+len(l.Defaults))
	for k, v := range payload {
		if l.IsReadOnly(k) || l.ValueDenied(k, v) {
			continue
		}
		out[k] = v
	}
	for k, v := range l.Forced {
		out[k] = v
	}
	for k, v := range l.Defaults {
		if cur, ok := out[k]; !ok || cur == nil || cur == "" {
			out[k] = v
		}
	}
	return out
}

// LockFields computes the field constraints for an actor mutating an entity
// kind. It is evaluated after authorization succeeds and never substitutes
// for a denial.
func (e *Engine) LockFields(actor Actor, kind Kind, op Operation) (Lockdown, error) {
	desc, err := e.registry.Resolve(kind)
	if err != nil {
		return Lockdown{}, err
	}

	l := newLockdown()
	if actor.IsPlatformAdmin() {
		return l, nil
	}

	// Privilege escalation is blocked below platform level regardless of
	// payload: the superuser flag is never editable and the platform role is
	// never assignable.
	l = l.readOnly(FieldSuperuser, FieldGroups)
	l = l.deny(FieldRole, string(RolePlatformAdmin), RolePlatformAdmin)

	if desc.Kind == KindUser {
		switch actor.Role {
		case RoleAgencyAdmin:
			l = l.force(FieldAgency, actor.Agency())
		default:
			// Agents and customers only ever reach their own record; its
			// placement and privileges are not theirs to change.
			l = l.readOnly(FieldAgency, FieldRole, FieldStaff)
		}
		return l, nil
	}

	// Agency-scoped actors write into their own tenant, full stop. Customers
	// carry no agency; the owning service derives tenancy from the target
	// record (e.g. an appointment inherits the listing's agency).
	if desc.HasTenant && (actor.Role == RoleAgencyAdmin || actor.Role == RoleAgent) {
		l = l.force(FieldAgency, actor.Agency())
	}
	if desc.HasOwner {
		switch actor.Role {
		case RoleAgent:
			l = l.force(FieldOwner, actor.ID)
		case RoleAgencyAdmin:
			if op == OpCreate {
				l = l.defaultTo(FieldOwner, actor.ID)
			}
		}
	}
	if desc.HasCustomer && actor.Role == RoleCustomer {
		l = l.force(FieldCustomer, actor.ID)
	}
	return l, nil
}
