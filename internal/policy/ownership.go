package policy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownEntity is returned when the engine is asked about an entity kind
// that was never registered. This is a programming error: the registry must
// be validated at startup, not patched around at request time.
var ErrUnknownEntity = errors.New("policy: unknown entity kind")

// Kind identifies an entity type registered with the policy engine.
type Kind string

const (
	KindUser          Kind = "user"
	KindAgency        Kind = "agency"
	KindListing       Kind = "listing"
	KindAppointment   Kind = "appointment"
	KindFavorite      Kind = "favorite"
	KindSavedSearch   Kind = "saved_search"
	KindSearchHistory Kind = "search_history"
	KindNotification  Kind = "notification"
)

// Granularity declares how agent visibility scopes for an entity kind:
// to the agent's whole agency, or only to records the agent owns. This is
// declared per entity, never inferred.
type Granularity int

const (
	GranularityAgency Granularity = iota
	GranularityOwner
)

// Identifiable exposes the entity's primary identity.
type Identifiable interface {
	EntityID() uuid.UUID
}

// TenantScoped exposes the agency reference that establishes tenancy.
// A nil return is legal: legacy records may lack a tenant and must never
// match a tenant-scoped predicate.
type TenantScoped interface {
	TenantRef() *uuid.UUID
}

// Owned exposes the owner/creator reference.
type Owned interface {
	OwnerRef() *uuid.UUID
}

// CustomerBound exposes the customer-counterparty reference.
type CustomerBound interface {
	CustomerRef() *uuid.UUID
}

// Descriptor declares the ownership model of one entity kind: which scoping
// relations it carries and the SQL columns those relations live in.
type Descriptor struct {
	Kind        Kind
	AgentScope  Granularity
	HasTenant   bool
	HasOwner    bool
	HasCustomer bool

	TenantColumn   string
	OwnerColumn    string
	CustomerColumn string
}

func (d Descriptor) validate() error {
	if d.Kind == "" {
		return errors.New("policy: descriptor missing kind")
	}
	if d.HasTenant && d.TenantColumn == "" {
		return fmt.Errorf("policy: descriptor %q declares tenant scoping without a tenant column", d.Kind)
	}
	if d.HasOwner && d.OwnerColumn == "" {
		return fmt.Errorf("policy: descriptor %q declares ownership without an owner column", d.Kind)
	}
	if d.HasCustomer && d.CustomerColumn == "" {
		return fmt.Errorf("policy: descriptor %q declares a customer relation without a customer column", d.Kind)
	}
	if d.AgentScope == GranularityAgency && !d.HasTenant {
		return fmt.Errorf("policy: descriptor %q scopes agents to agency but has no tenant field", d.Kind)
	}
	return nil
}

// Registry is the immutable set of entity descriptors, built once at process
// startup.
type Registry struct {
	descriptors map[Kind]Descriptor
}

// NewRegistry builds a registry from the given descriptors. Invalid or
// duplicate descriptors fail construction.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	m := make(map[Kind]Descriptor, len(descs))
	for _, d := range descs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := m[d.Kind]; dup {
			return nil, fmt.Errorf("policy: duplicate descriptor for kind %q", d.Kind)
		}
		m[d.Kind] = d
	}
	return &Registry{descriptors: m}, nil
}

// Resolve returns the descriptor for a kind.
func (r *Registry) Resolve(kind Kind) (Descriptor, error) {
	d, ok := r.descriptors[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownEntity, kind)
	}
	return d, nil
}

// Validate confirms every listed kind has a descriptor. Call it from main so
// a missing entry aborts boot instead of surfacing mid-request.
func (r *Registry) Validate(kinds ...Kind) error {
	for _, k := range kinds {
		if _, ok := r.descriptors[k]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEntity, k)
		}
	}
	return nil
}

// TenantOf extracts the tenant reference from an entity, tolerating entities
// without tenant scoping.
func TenantOf(entity any) *uuid.UUID {
	if ts, ok := entity.(TenantScoped); ok {
		return ts.TenantRef()
	}
	return nil
}

// OwnerOf extracts the owner reference from an entity.
func OwnerOf(entity any) *uuid.UUID {
	if o, ok := entity.(Owned); ok {
		return o.OwnerRef()
	}
	return nil
}

// CustomerOf extracts the customer-counterparty reference from an entity.
func CustomerOf(entity any) *uuid.UUID {
	if c, ok := entity.(CustomerBound); ok {
		return c.CustomerRef()
	}
	return nil
}

func entityID(entity any) uuid.UUID {
	if id, ok := entity.(Identifiable); ok {
		return id.EntityID()
	}
	return uuid.Nil
}
