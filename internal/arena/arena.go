//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena wraps Go's experimental `arena` package behind a tiny,
// stable surface sized for gnosis's one real use: request-scoped scratch
// memory that dies the instant a call returns.
//
// Two call sites use this package: Gnosis.Select allocates its Query
// storage slices here, and each analogy.Run worker allocates its
// per-variable assignment slice here. Both are born and freed within a
// single synchronous call — exactly the shape `arena` is for.
//
// Concurrency
// -----------
// Arena is *not* thread-safe. Pool (pool.go) hands each caller its own
// arena for the duration of one call, so no arena is ever touched by two
// goroutines at once.
//
// ⚠️  DISCLAIMER  ----------------------------------------------
// Using arenas bypasses the garbage collector; no pointer obtained from
// an Arena may escape past its Free(). Pool enforces this by construction:
// nothing holds a reference to a pooled arena's contents once the call
// that borrowed it returns.
// -------------------------------------------------------------
//
// © 2025 gnosis authors. MIT License.

package arena

import (
	"arena" // standard library experimental package
	"unsafe"
)

// Arena is a thin new-type wrapper that keeps the rest of gnosis from
// depending on `arena.Arena` directly, leaving room to swap allocators.
type Arena struct{ ar arena.Arena }

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: *arena.NewArena()}
}

// Free releases all memory allocated in the arena. After the call, any
// pointer previously returned from NewValue/MakeSlice becomes invalid.
func (a *Arena) Free() {
	a.ar = arena.Arena{}
}

// NewValue allocates a zero-initialised T inside the arena and returns a
// pointer to it, valid until Free.
func NewValue[T any](a *Arena) *T { return arena.New[T](&a.ar) }

// MakeSlice allocates a slice of length==cap==n inside the arena.
func MakeSlice[T any](a *Arena, n int) []T { return arena.MakeSlice[T](&a.ar, n, n) }

// AllocBytes copies buf into the arena and returns the new, arena-owned
// memory.
func AllocBytes(a *Arena, buf []byte) []byte {
	dst := arena.MakeSlice[byte](&a.ar, len(buf), len(buf))
	copy(dst, buf)
	return dst
}

// UnsafePointer converts an arena-backed pointer to unsafe.Pointer.
func UnsafePointer[T any](p *T) unsafe.Pointer { return unsafe.Pointer(p) }
