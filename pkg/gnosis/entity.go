package gnosis

// Entity is a lightweight, non-owning handle to a node in a Gnosis graph.
// It carries only an identity and a back-pointer to the Gnosis instance
// that owns the underlying storage — there is no global registry to keep
// handles consistent with; two Entity values naming the same identity
// against the same Gnosis are interchangeable, and a handle from one
// Gnosis must never be passed to another.
//
// © 2025 gnosis authors. MIT License.

import (
	"context"
	"errors"

	"github.com/Voskan/gnosis/internal/codec"
)

// ErrForgotten is returned by operations attempted against an identity
// that has already been forgotten.
var ErrForgotten = errors.New("gnosis: entity has been forgotten")

// ErrImmutable is returned when Incl/Excl/Absorb targets an entity whose
// signature includes IMMUTABLE.
var ErrImmutable = errors.New("gnosis: entity is immutable")

// ErrImmortal is returned when Forget targets an entity whose signature
// includes IMMORTAL.
var ErrImmortal = errors.New("gnosis: entity is immortal")

// Entity identifies a node together with the Gnosis that owns it.
type Entity struct {
	id codec.Identity
	g  *Gnosis
}

// ID returns the entity's identity.
func (e Entity) ID() codec.Identity { return e.id }

// IsNil reports whether e carries NIHIL, the null identity.
func (e Entity) IsNil() bool { return e.id == codec.NIHIL || e.g == nil }

func (e Entity) sameOwner(other Entity) bool { return e.g == other.g }

// requireSameOwner panics if sign belongs to a different Gnosis instance
// than e. Mixing handles across instances is a cross-unit mismatch — a
// precondition violation the caller controls entirely, not a runtime
// condition to recover from.
func (e Entity) requireSameOwner(sign Entity) {
	if !e.sameOwner(sign) {
		panic("gnosis: entity belongs to a different Gnosis instance")
	}
}

// Incl adds sign to e's signature, applying the heritable and mutual-
// exclusion rewrite rules. See Gnosis.Incl.
func (e Entity) Incl(ctx context.Context, sign Entity) error {
	e.requireSameOwner(sign)
	return e.g.Incl(ctx, e.id, sign.id)
}

// Excl removes sign from e's signature, if present.
func (e Entity) Excl(ctx context.Context, sign Entity) error {
	e.requireSameOwner(sign)
	return e.g.Excl(ctx, e.id, sign.id)
}

// Absorb reparents every entity whose signature contains child onto e,
// then forgets child.
func (e Entity) Absorb(ctx context.Context, child Entity) error {
	e.requireSameOwner(child)
	return e.g.Absorb(ctx, e.id, child.id)
}

// Forget removes e from the graph, propagating referential-integrity
// change events to every subscriber (the attribute store and glossary
// among them).
func (e Entity) Forget(ctx context.Context) error {
	return e.g.Forget(ctx, e.id)
}

// Signature returns the identities currently in e's signature, in
// ascending order.
func (e Entity) Signature() []codec.Identity {
	return e.g.Signature(e.id)
}

// Contains reports whether sign is a member of e's signature.
func (e Entity) Contains(sign Entity) bool {
	if !e.sameOwner(sign) {
		return false
	}
	return e.g.Contains(e.id, sign.id)
}

// Sequence returns e's assigned sequence, or nil if none was assigned.
func (e Entity) Sequence() []codec.Identity {
	return e.g.Sequence(e.id)
}

// SetSequence replaces e's sequence. An empty ids clears it.
func (e Entity) SetSequence(ids []codec.Identity) {
	e.g.SetSequence(e.id, ids)
}
