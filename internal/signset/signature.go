// Package signset implements the two identity-collections attached to an
// entity: Signature, a bounded-capacity set with a deterministic
// enumeration order, and Sequence, an unbounded ordered list that allows
// duplicates.
//
// Insertion order is never observable on a Signature — the reference
// implementation (original_source/set.h) backs a Signature by either a
// bitset or a hash set depending on instantiation, so no caller may rely
// on the order in which members were added. Enumerate() sorts by
// identity value instead, which is cheap at this capacity and stable
// across runs.
//
// © 2025 gnosis authors. MIT License.
package signset

import (
	"fmt"
	"sort"

	"github.com/Voskan/gnosis/internal/codec"
)

// DefaultCapacity is K_sign from the specification.
const DefaultCapacity = 127

// Signature is a bounded set of identities. The zero value is not usable;
// construct with NewSignature.
type Signature struct {
	capacity int
	members  map[codec.Identity]struct{}
}

// NewSignature constructs an empty Signature with the given capacity.
// capacity <= 0 is treated as DefaultCapacity.
func NewSignature(capacity int) *Signature {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Signature{capacity: capacity, members: make(map[codec.Identity]struct{})}
}

// Capacity returns the maximum number of members this Signature may hold.
func (s *Signature) Capacity() int { return s.capacity }

// Insert adds id to the signature. It is a no-op returning true if id is
// already a member or is NIHIL (NIHIL is never a member of any
// signature). It returns false, making no change, if inserting would
// exceed the signature's capacity.
func (s *Signature) Insert(id codec.Identity) bool {
	if id == codec.NIHIL {
		return true
	}
	if _, ok := s.members[id]; ok {
		return true
	}
	if len(s.members) >= s.capacity {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Remove deletes id from the signature, if present, and reports whether it
// was a member.
func (s *Signature) Remove(id codec.Identity) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

// Contains reports whether id is a member.
func (s *Signature) Contains(id codec.Identity) bool {
	_, ok := s.members[id]
	return ok
}

// ContainsAll reports whether every member of other is also a member of
// s (other is a subset of s, or other is empty).
func (s *Signature) ContainsAll(other *Signature) bool {
	if other == nil || other.Size() == 0 {
		return true
	}
	if other.Size() > s.Size() {
		return false
	}
	for id := range other.members {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Intersect returns a new Signature holding members common to both s and
// other, sized to the smaller of the two capacities.
func (s *Signature) Intersect(other *Signature) *Signature {
	cap := s.capacity
	if other != nil && other.capacity < cap {
		cap = other.capacity
	}
	out := NewSignature(cap)
	if other == nil {
		return out
	}
	small, big := s, other
	if big.Size() < small.Size() {
		small, big = big, small
	}
	for id := range small.members {
		if big.Contains(id) {
			out.Insert(id)
		}
	}
	return out
}

// Equal reports whether s and other hold the same members.
func (s *Signature) Equal(other *Signature) bool {
	if other == nil {
		return s.Size() == 0
	}
	if s.Size() != other.Size() {
		return false
	}
	for id := range s.members {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Size returns the number of members.
func (s *Signature) Size() int { return len(s.members) }

// Clear removes every member.
func (s *Signature) Clear() {
	for id := range s.members {
		delete(s.members, id)
	}
}

// Enumerate returns the members in deterministic (ascending identity)
// order. The returned slice is a fresh copy, safe to retain.
func (s *Signature) Enumerate() []codec.Identity {
	out := make([]codec.Identity, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of s.
func (s *Signature) Clone() *Signature {
	out := NewSignature(s.capacity)
	for id := range s.members {
		out.members[id] = struct{}{}
	}
	return out
}

func (s *Signature) String() string {
	if s.Size() == 0 {
		return "{}"
	}
	return fmt.Sprintf("%v", s.Enumerate())
}
