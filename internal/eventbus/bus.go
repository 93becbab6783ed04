// Package eventbus implements the process-local change-event bus: a
// synchronous, mutex-guarded publish of identity-change notifications
// consumed by the attribute store and the glossary (and any other
// subscriber Gnosis itself does not know about).
//
// Subscriber handles are random non-NIHIL 32-bit values checked only
// against the handles already registered on this Bus. They are not drawn
// from the entity identity pool, so a handle may equal an entity id.
//
// © 2025 gnosis authors. MIT License.
package eventbus

import (
	"math/rand/v2"
	"sync"

	"github.com/Voskan/gnosis/internal/codec"
)

// ChangeFunc receives a change event: old is the identity that changed,
// new is codec.NIHIL when old was forgotten, or the identity old was
// renamed/absorbed into otherwise. attribute selects which half of a
// composite attribute-store key old refers to.
type ChangeFunc func(old, new codec.Identity, attribute bool)

// Handle identifies a registered subscriber, returned by Subscribe and
// consumed by Unsubscribe.
type Handle codec.Identity

// Bus is a single-mutex, synchronous publish/subscribe point. Publish
// dispatches on the calling goroutine, over a copy of the subscriber
// list taken under the mutex; the mutex is released before any
// subscriber runs.
type Bus struct {
	mu   sync.Mutex
	subs map[Handle]ChangeFunc
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Handle]ChangeFunc)}
}

// Subscribe registers f and returns a Handle that later unregisters it.
func (b *Bus) Subscribe(f ChangeFunc) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	var h Handle
	for {
		h = Handle(rand.Uint32())
		if h == Handle(codec.NIHIL) {
			continue
		}
		if _, taken := b.subs[h]; !taken {
			break
		}
	}
	b.subs[h] = f
	return h
}

// Unsubscribe removes the subscriber registered under h, if any.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, h)
}

// Publish dispatches the change event to every current subscriber, in an
// unspecified order.
func (b *Bus) Publish(old, new codec.Identity, attribute bool) {
	b.mu.Lock()
	fns := make([]ChangeFunc, 0, len(b.subs))
	for _, f := range b.subs {
		fns = append(fns, f)
	}
	b.mu.Unlock()
	for _, f := range fns {
		f(old, new, attribute)
	}
}

// Len returns the current subscriber count, mainly for tests.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
