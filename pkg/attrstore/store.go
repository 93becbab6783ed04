package attrstore

// store.go defines the Storage interface every attribute-store backend
// implements, and MemStorage, an in-memory implementation keyed by
// codec.Pair(subject, attribute), guarded the same way the teacher's
// cache shard guards its index: one sync.RWMutex per store.
//
// © 2025 gnosis authors. MIT License.

import (
	"sync"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// Storage is the attribute-store backend contract. Every method is keyed
// by the composite key codec.Pair(subject, attribute) produces.
type Storage interface {
	Put(key codec.Key, val Cargo)
	Get(key codec.Key) (Cargo, bool)
	Excl(key codec.Key)
	Contains(key codec.Key) bool
	Len() int
	Clear() int
	Close() error
}

// Key composes a subject/attribute pair into a store key.
func Key(subject, attribute codec.Identity) codec.Key {
	return codec.Pair(subject, attribute)
}

// MemStorage is an in-memory Storage backed by a plain map, subscribed to
// a Gnosis's change-event bus so that forgetting or absorbing an entity
// rewrites or drops the attribute-store entries that named it.
type MemStorage struct {
	mu   sync.RWMutex
	data map[codec.Key]Cargo

	g *gnosis.Gnosis
}

// NewMemStorage constructs an empty MemStorage and subscribes it to g's
// change-event bus for referential-integrity propagation.
func NewMemStorage(g *gnosis.Gnosis) *MemStorage {
	m := &MemStorage{data: make(map[codec.Key]Cargo), g: g}
	g.OnChangeIdIncl(m.onChange)
	return m
}

// onChange mirrors data.mini.h's Mini::change: when an identity is
// forgotten (id2 == NIHIL) every key naming it on the `attribute`-selected
// half is dropped; when an identity changes id (Absorb), every such key
// is rewritten to name id2 instead.
func (m *MemStorage) onChange(id, id2 codec.Identity, attribute bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type rewrite struct {
		old, new codec.Key
	}
	var drops []codec.Key
	var rewrites []rewrite
	for k := range m.data {
		obj, atr := codec.Unpair(k)
		matches := atr == id
		if !attribute {
			matches = obj == id
		}
		if !matches {
			continue
		}
		if id2 == codec.NIHIL {
			drops = append(drops, k)
			continue
		}
		var nk codec.Key
		if attribute {
			nk = codec.Pair(obj, id2)
		} else {
			nk = codec.Pair(id2, atr)
		}
		rewrites = append(rewrites, rewrite{k, nk})
	}
	for _, k := range drops {
		delete(m.data, k)
	}
	for _, rw := range rewrites {
		m.data[rw.new] = m.data[rw.old]
		delete(m.data, rw.old)
	}
}

func (m *MemStorage) Put(key codec.Key, val Cargo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func (m *MemStorage) Get(key codec.Key) (Cargo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemStorage) Excl(key codec.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *MemStorage) Contains(key codec.Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *MemStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemStorage) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.data)
	m.data = make(map[codec.Key]Cargo)
	return n
}

func (m *MemStorage) Close() error { return nil }
