package signset

import "github.com/Voskan/gnosis/internal/codec"

// Sequence is an ordered, duplicate-tolerant list of identities attached
// to an entity. It is semantically distinct from Signature: order is
// observable and members may repeat.
type Sequence struct {
	items []codec.Identity
}

// NewSequence constructs an empty Sequence, optionally pre-sized.
func NewSequence(capacityHint int) *Sequence {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Sequence{items: make([]codec.Identity, 0, capacityHint)}
}

// Append adds id to the end of the sequence. NIHIL is rejected silently,
// matching the invariant that NIHIL is never a member of any sequence.
func (q *Sequence) Append(id codec.Identity) {
	if id == codec.NIHIL {
		return
	}
	q.items = append(q.items, id)
}

// Clear empties the sequence.
func (q *Sequence) Clear() { q.items = q.items[:0] }

// Size returns the number of elements, including duplicates.
func (q *Sequence) Size() int { return len(q.items) }

// At returns the identity at index i. ok is false if i is out of range.
func (q *Sequence) At(i int) (id codec.Identity, ok bool) {
	if i < 0 || i >= len(q.items) {
		return codec.NIHIL, false
	}
	return q.items[i], true
}

// Items returns a fresh copy of the sequence contents, in order.
func (q *Sequence) Items() []codec.Identity {
	out := make([]codec.Identity, len(q.items))
	copy(out, q.items)
	return out
}

// Clone returns an independent copy of q.
func (q *Sequence) Clone() *Sequence {
	out := NewSequence(len(q.items))
	out.items = append(out.items, q.items...)
	return out
}

// Replace overwrites the sequence contents with ids, in order.
func (q *Sequence) Replace(ids []codec.Identity) {
	q.items = append(q.items[:0], ids...)
}
