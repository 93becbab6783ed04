// Package glossary implements the bidirectional name<->identity map scoped
// to one Gnosis: Let assigns or clears a name, Entity looks a name up or
// creates the entity behind it, and Known looks a name up without ever
// creating anything. A Glossary subscribes to its Gnosis's change-event bus
// so that forgetting an entity erases its stale name mapping.
//
// © 2025 gnosis authors. MIT License.
package glossary

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/internal/eventbus"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// Glossary is a bidirectional name<->identity map for exactly one Gnosis.
// A Glossary must not be shared across Gnosis instances: every Entity
// handle it hands back or accepts belongs to the Gnosis it was built
// against.
type Glossary struct {
	cfg *config
	g   *gnosis.Gnosis

	mu       sync.RWMutex
	lex      map[codec.Identity]string
	identity map[string]codec.Identity

	creating singleflight.Group
	sub      eventbus.Handle
}

// New constructs a Glossary bound to g, seeds the congenital vocabulary
// names, and subscribes to g's change-event bus for forget cleanup.
func New(g *gnosis.Gnosis, opts ...Option) (*Glossary, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	gl := &Glossary{
		cfg:      cfg,
		g:        g,
		lex:      make(map[codec.Identity]string),
		identity: make(map[string]codec.Identity),
	}
	for _, e := range g.Congenital() {
		name, ok := gnosis.CongenitalName(e.ID())
		if !ok {
			continue
		}
		gl.letLocked(e.ID(), name)
	}
	gl.sub = g.OnChangeIdIncl(gl.onChange)
	cfg.logger.Info("glossary seeded", zap.Int("congenital", len(gl.lex)))
	return gl, nil
}

// onChange erases id's name mapping whenever Gnosis reports it changed
// identity (forgotten or absorbed into another entity); the reference
// implementation keeps the old name in neither case, since a renamed
// entity is expected to be re-let under its new identity if desired.
func (gl *Glossary) onChange(id, _ codec.Identity, _ bool) {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	name, ok := gl.lex[id]
	if !ok {
		return
	}
	delete(gl.lex, id)
	delete(gl.identity, name)
}

// Close unsubscribes the glossary from its Gnosis's change-event bus.
func (gl *Glossary) Close() {
	gl.g.OnChangeIdExcl(gl.sub)
}

// Size returns the number of named entities.
func (gl *Glossary) Size() int {
	gl.mu.RLock()
	defer gl.mu.RUnlock()
	return len(gl.lex)
}

// Let assigns name to e, replacing any existing name for e. Passing an
// empty name clears e's mapping.
// Let refuses to steal a name that already points at a different
// identity, returning false.
func (gl *Glossary) Let(e gnosis.Entity, name string) bool {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	return gl.letLocked(e.ID(), name)
}

func (gl *Glossary) letLocked(id codec.Identity, name string) bool {
	if name == "" {
		if old, ok := gl.lex[id]; ok {
			delete(gl.identity, old)
			delete(gl.lex, id)
		}
		return true
	}
	if len(name) > gl.cfg.nameCapacity {
		name = name[:gl.cfg.nameCapacity]
	}
	if owner, taken := gl.identity[name]; taken && owner != id {
		return false
	}
	if old, ok := gl.lex[id]; ok {
		delete(gl.identity, old)
	}
	gl.lex[id] = name
	gl.identity[name] = id
	return true
}

// Known looks name up without creating anything, returning the nil
// Entity (g.None()) if name is unassigned.
func (gl *Glossary) Known(name string) gnosis.Entity {
	if name == "" {
		return gl.g.None()
	}
	gl.mu.RLock()
	id, ok := gl.identity[name]
	gl.mu.RUnlock()
	if !ok {
		return gl.g.None()
	}
	return gl.g.Recover(id)
}

// Entity looks name up, returning the existing entity if known, or
// creates a fresh entity and assigns it name otherwise. Concurrent
// Entity calls for the same not-yet-known name are deduplicated:
// exactly one goroutine creates the entity, the rest observe its result.
func (gl *Glossary) Entity(ctx context.Context, name string, syndrome ...gnosis.Entity) (gnosis.Entity, error) {
	if name == "" {
		return gl.g.None(), nil
	}
	if e := gl.Known(name); !e.IsNil() {
		return e, nil
	}
	v, err, _ := gl.creating.Do(name, func() (any, error) {
		if e := gl.Known(name); !e.IsNil() {
			return e, nil
		}
		e, err := gl.g.Entity()
		if err != nil {
			return gnosis.Entity{}, fmt.Errorf("glossary: entity %q: %w", name, err)
		}
		if !gl.Let(e, name) {
			return gnosis.Entity{}, fmt.Errorf("glossary: name %q taken by another identity mid-creation", name)
		}
		for _, sign := range syndrome {
			if err := e.Incl(ctx, sign); err != nil {
				return gnosis.Entity{}, fmt.Errorf("glossary: entity %q: incl: %w", name, err)
			}
		}
		return e, nil
	})
	if err != nil {
		return gnosis.Entity{}, err
	}
	return v.(gnosis.Entity), nil
}
