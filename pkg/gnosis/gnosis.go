// Package gnosis implements a sharded, concurrent entity-attribute graph:
// a fixed vocabulary of congenital concepts, caller-created entities
// identified by randomly drawn 32-bit identities, and signature sets that
// attach other entities to an entity as its "syndrome" (the set of things
// it is). The graph is partitioned across N single-writer shards indexed
// by identity, each served by one goroutine reachable only through the
// atomic request/idle handshake in shard.go.
//
// © 2025 gnosis authors. MIT License.
package gnosis

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Voskan/gnosis/internal/arena"
	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/internal/eventbus"
	"github.com/Voskan/gnosis/internal/signset"
)

const shardStartTimeout = 100 * time.Millisecond

// ChangeFunc is notified whenever an entity changes identity: Forget calls
// it with (id, NIHIL, isAttribute) and Absorb calls it with
// (childID, parentID, false). isAttribute selects which half of a
// composite attribute-store key the identity occupied, mirroring the
// reference implementation's is(ATTRIBUTE) check.
type ChangeFunc = eventbus.ChangeFunc

// Gnosis owns the sharded entity table, the congenital vocabulary and the
// change-event bus every dependent subsystem (attribute store, glossary)
// subscribes to.
type Gnosis struct {
	cfg     *config
	shards  []*shard
	bus     *eventbus.Bus
	metrics metricsSink
	pool    *arena.Pool
	spurt   atomic.Bool
}

// New constructs a Gnosis instance, starts its shards and seeds the
// congenital vocabulary. The returned instance must be closed with Close.
func New(opts ...Option) (*Gnosis, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	g := &Gnosis{
		cfg:     cfg,
		shards:  make([]*shard, cfg.shards),
		bus:     eventbus.New(),
		metrics: newMetricsSink(cfg.registry),
		pool:    arena.NewPool(cfg.arenaSlots),
	}
	for i := range g.shards {
		g.shards[i] = newShard(i, &g.spurt)
		if !g.shards[i].start(shardStartTimeout) {
			g.Close()
			return nil, fmt.Errorf("gnosis: shard %d failed to start", i)
		}
	}
	g.seedCongenital()
	cfg.logger.Info("gnosis started", zap.Int("shards", cfg.shards))
	return g, nil
}

// Close terminates every shard's service goroutine. The instance is unusable
// afterwards.
func (g *Gnosis) Close() {
	for _, s := range g.shards {
		if s != nil {
			s.terminate()
		}
	}
}

func (g *Gnosis) shardFor(id codec.Identity) *shard {
	return g.shards[uint32(id)%uint32(len(g.shards))]
}

// Explicate returns every entity other than sign itself whose signature
// contains sign (at most explicateResultCapacity per shard), i.e. it
// inverts the "is a member of" relation. It is a one-syndrome Select
// dispatch, not a bespoke reverse index: explicate reuses the same
// shard-selection machinery as every other query.
func (g *Gnosis) Explicate(ctx context.Context, sign codec.Identity) ([]codec.Identity, error) {
	var out []codec.Identity
	_, err := g.Select(ctx, [][]codec.Identity{{sign}}, explicateResultCapacity, func(_ int, e Entity) bool {
		if e.id != sign {
			out = append(out, e.id)
		}
		return true
	})
	return out, err
}

// explicate is Incl's and Absorb's internal entry point into Explicate; it
// swallows a context error by falling back to context.Background, since
// both callers already hold an outer ctx but treat the rewrite as part of
// a single atomic mutation rather than a separately cancellable step.
func (g *Gnosis) explicate(ctx context.Context, sign codec.Identity) []codec.Identity {
	out, err := g.Explicate(ctx, sign)
	if err != nil {
		out, err = g.Explicate(context.Background(), sign)
		if err != nil {
			return nil
		}
	}
	return out
}

// explicateResultCapacity bounds how many members a single Explicate call
// can return per shard; generous enough for mutex groups and dependent
// fan-out, which are expected to stay small relative to the graph.
const explicateResultCapacity = 4096

func (g *Gnosis) seedCongenital() {
	for _, id := range congenitalIdentities {
		sig := g.shardFor(id).insert(id)
		sig.Insert(IMMUTABLE)
		sig.Insert(IMMORTAL)
	}
	// NAME additionally carries STRING and ATTRIBUTE, matching the
	// reference vocabulary. Added via direct signature access rather
	// than Incl, since Incl refuses to touch an IMMUTABLE entity and
	// every congenital concept, NAME included, already is one by now.
	nameSig, _ := g.shardFor(NAME).signature(NAME)
	nameSig.Insert(STRING)
	nameSig.Insert(ATTRIBUTE)
}

// Entity creates a new entity with a randomly drawn identity and an empty
// signature. The pool of candidate identities is widened (more attempts,
// then more bits considered) up to cfg.maxRetries times before giving up.
//
// Exhausting the pool is a capacity fault, not a recoverable condition: the
// core must fail loudly rather than risk handing out a colliding id, so
// Entity panics instead of returning an error.
func (g *Gnosis) Entity() (Entity, error) {
	const attemptsPerRound = 32
	mask := g.cfg.identityMask
	for round := 0; round < g.cfg.maxRetries; round++ {
		for attempt := 0; attempt < attemptsPerRound; attempt++ {
			id := codec.Identity(rand.Uint32() & mask)
			if id == codec.NIHIL {
				continue
			}
			sh := g.shardFor(id)
			if !sh.exists(id) {
				sh.insert(id)
				return Entity{id: id, g: g}, nil
			}
		}
		mask = mask<<1 | 1
	}
	g.cfg.logger.Error("identity pool exhausted", zap.Int("rounds", g.cfg.maxRetries))
	panic(fmt.Sprintf("gnosis: exhausted identity pool after %d rounds", g.cfg.maxRetries))
}

// EntityWith creates a new entity and immediately Incl's every sign in
// syndrome onto it.
func (g *Gnosis) EntityWith(ctx context.Context, syndrome ...Entity) (Entity, error) {
	e, err := g.Entity()
	if err != nil {
		return Entity{}, err
	}
	for _, sign := range syndrome {
		if err := e.Incl(ctx, sign); err != nil {
			return Entity{}, err
		}
	}
	return e, nil
}

// Recover reconstructs an Entity handle for an identity already known to
// this Gnosis. Recovering an id that was never allocated, or was already
// forgotten, is a precondition violation on the caller's part, not a
// reportable runtime condition, so Recover panics rather than returning an
// error — matching the reference implementation's unconditional assertion
// on the same path.
func (g *Gnosis) Recover(id codec.Identity) Entity {
	if id == codec.NIHIL || !g.shardFor(id).exists(id) {
		panic(fmt.Sprintf("gnosis: recover of unknown identity %d", id))
	}
	return Entity{id: id, g: g}
}

// None returns the nil Entity handle for this Gnosis, representing an
// absent reference.
func (g *Gnosis) None() Entity { return Entity{id: codec.NIHIL, g: g} }

// Congenital returns the full fixed vocabulary as Entity handles.
func (g *Gnosis) Congenital() []Entity {
	out := make([]Entity, 0, len(congenitalIdentities))
	for _, id := range congenitalIdentities {
		out = append(out, Entity{id: id, g: g})
	}
	return out
}

// Signature returns the members of id's signature in ascending order, or
// nil if id does not exist.
func (g *Gnosis) Signature(id codec.Identity) []codec.Identity {
	sig, ok := g.shardFor(id).signature(id)
	if !ok {
		return nil
	}
	return sig.Enumerate()
}

// Contains reports whether sign is a member of id's signature.
func (g *Gnosis) Contains(id, sign codec.Identity) bool {
	sig, ok := g.shardFor(id).signature(id)
	if !ok {
		return false
	}
	return sig.Contains(sign)
}

// Sequence returns id's assigned sequence, or nil.
func (g *Gnosis) Sequence(id codec.Identity) []codec.Identity {
	seq, ok := g.shardFor(id).sequence(id)
	if !ok {
		return nil
	}
	return seq.Items()
}

// SetSequence replaces id's assigned sequence.
func (g *Gnosis) SetSequence(id codec.Identity, ids []codec.Identity) {
	seq := signset.NewSequence(len(ids))
	seq.Replace(ids)
	g.shardFor(id).setSequence(id, seq)
}

// Incl adds sign to id's signature, first applying the heritable signs and
// mutual-exclusion rules carried directly in sign's own signature (one
// level; not applied recursively). A no-op if sign is NIHIL; returns
// ErrImmutable if id is IMMUTABLE.
func (g *Gnosis) Incl(ctx context.Context, id, sign codec.Identity) error {
	if sign == codec.NIHIL {
		return nil
	}
	idShard := g.shardFor(id)
	target, ok := idShard.signature(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrForgotten, id)
	}
	if target.Contains(IMMUTABLE) {
		return ErrImmutable
	}
	// Walk sign's own signature. Each signSign that is itself tagged
	// HERITABLE is added to target directly (a sign inherits the
	// heritable signs of the signs it carries). Each signSign tagged
	// MUTEX names a mutually-exclusive group: every entity that
	// currently carries signSign (explicate(signSign)) is dropped from
	// target, since adding sign makes target a member of that group.
	if signSig, ok := g.shardFor(sign).signature(sign); ok {
		for _, signSign := range signSig.Enumerate() {
			signSignSig, ok := g.shardFor(signSign).signature(signSign)
			if !ok {
				continue
			}
			if signSignSig.Contains(HERITABLE) {
				target.Insert(signSign)
			}
			if signSignSig.Contains(MUTEX) {
				for _, peer := range g.explicate(ctx, signSign) {
					target.Remove(peer)
				}
			}
		}
	}
	target.Insert(sign)
	g.metrics.incIncl(idShard.idx)
	return nil
}

// Excl removes sign from id's signature, if present. A no-op if sign is
// NIHIL; returns ErrImmutable if id is IMMUTABLE.
func (g *Gnosis) Excl(ctx context.Context, id, sign codec.Identity) error {
	if sign == codec.NIHIL {
		return nil
	}
	idShard := g.shardFor(id)
	target, ok := idShard.signature(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrForgotten, id)
	}
	if target.Contains(IMMUTABLE) {
		return ErrImmutable
	}
	target.Remove(sign)
	g.metrics.incExcl(idShard.idx)
	return nil
}

// Forget removes id from the graph: every other entity's signature loses
// id as a member, every change-event subscriber is notified with
// (id, NIHIL, isAttribute), and id's own storage is freed. Forgetting an
// IMMORTAL entity fails with ErrImmortal.
func (g *Gnosis) Forget(ctx context.Context, id codec.Identity) error {
	idShard := g.shardFor(id)
	sig, ok := idShard.signature(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrForgotten, id)
	}
	if sig.Contains(IMMORTAL) {
		return ErrImmortal
	}
	isAttribute := sig.Contains(ATTRIBUTE)
	g.bus.Publish(id, codec.NIHIL, isAttribute)
	excluded := 0
	for _, s := range g.shards {
		excluded += s.forgotten(id)
	}
	idShard.remove(id)
	g.metrics.incForget(idShard.idx)
	if excluded > 0 {
		g.cfg.logger.Debug("entity forgotten", zap.Uint32("id", uint32(id)), zap.Int("excludedFrom", excluded))
	}
	return nil
}

// Absorb reparents every entity whose signature contains child onto
// parent (moving child's own signs onto parent first), then forgets
// child. Fails if child is IMMORTAL, parent is IMMUTABLE, or any of
// child's dependents is IMMUTABLE.
func (g *Gnosis) Absorb(ctx context.Context, parent, child codec.Identity) error {
	childSig, ok := g.shardFor(child).signature(child)
	if !ok {
		return fmt.Errorf("%w: %d", ErrForgotten, child)
	}
	if childSig.Contains(IMMORTAL) {
		return ErrImmortal
	}
	parentSig, ok := g.shardFor(parent).signature(parent)
	if !ok {
		return fmt.Errorf("%w: %d", ErrForgotten, parent)
	}
	if parentSig.Contains(IMMUTABLE) {
		return ErrImmutable
	}

	dependents := g.explicate(ctx, child)
	for _, dep := range dependents {
		sig, ok := g.shardFor(dep).signature(dep)
		if ok && sig.Contains(IMMUTABLE) {
			return ErrImmutable
		}
	}

	for _, sign := range childSig.Enumerate() {
		if err := g.Incl(ctx, parent, sign); err != nil {
			return err
		}
		childSig.Remove(sign)
	}
	for _, dep := range dependents {
		if err := g.Incl(ctx, dep, parent); err != nil {
			return err
		}
		if depSig, ok := g.shardFor(dep).signature(dep); ok {
			depSig.Remove(child)
		}
	}

	g.bus.Publish(child, parent, false)
	return g.Forget(ctx, child)
}

// OnChangeIdIncl subscribes f to identity-change events (Forget, Absorb)
// and returns a handle that later unsubscribes it via OnChangeIdExcl.
func (g *Gnosis) OnChangeIdIncl(f ChangeFunc) eventbus.Handle {
	return g.bus.Subscribe(f)
}

// OnChangeIdExcl removes a subscription previously registered with
// OnChangeIdIncl.
func (g *Gnosis) OnChangeIdExcl(h eventbus.Handle) bool {
	before := g.bus.Len()
	g.bus.Unsubscribe(h)
	return g.bus.Len() < before
}

// Select dispatches one Query per syndrome in syndromes to every shard and
// invokes f(syndromeIndex, entity) for each match, in shard-completion
// order. resultCapacity bounds how many matches a single shard may report
// per syndrome; excess matches are dropped (Query.Overrun is set but
// Select does not currently surface it to the caller).
func (g *Gnosis) Select(ctx context.Context, syndromes [][]codec.Identity, resultCapacity int, f func(syndromeIndex int, e Entity) bool) (int, error) {
	if len(syndromes) == 0 {
		return 0, fmt.Errorf("gnosis: select called with no syndromes")
	}
	if resultCapacity <= 0 {
		resultCapacity = 512
	}
	start := time.Now()
	defer func() { g.metrics.observeSelect(time.Since(start).Seconds()) }()

	a, release := g.pool.Lease()
	defer release()

	n := len(syndromes)
	perShard := make([]Request, len(g.shards))
	for s := range g.shards {
		req := make(Request, n)
		for i, syn := range syndromes {
			req[i] = &Query{
				Syndrome: syn,
				Storage:  arena.MakeSlice[codec.Identity](a, resultCapacity),
			}
		}
		perShard[s] = req
	}
	for s, sh := range g.shards {
		if !sh.publish(perShard[s]) {
			return 0, fmt.Errorf("gnosis: shard %d rejected select request", s)
		}
	}

	finished := make([]bool, len(g.shards))
	total := 0
	remaining := len(g.shards)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		for s, sh := range g.shards {
			if finished[s] {
				continue
			}
			if !sh.idle.Load() {
				continue
			}
			for i, q := range perShard[s] {
				total += q.Num
				for j := 0; j < q.Num; j++ {
					f(i, Entity{id: q.Storage[j], g: g})
				}
			}
			finished[s] = true
			remaining--
		}
		if remaining > 0 {
			runtime.Gosched()
		}
	}
	return total, nil
}

// UniqueEntityID returns the single identity whose signature contains
// every member of syndrome, or NIHIL if zero or more than one entity
// matches.
func (g *Gnosis) UniqueEntityID(ctx context.Context, syndrome []codec.Identity) (codec.Identity, error) {
	found := codec.NIHIL
	ambiguous := false
	_, err := g.Select(ctx, [][]codec.Identity{syndrome}, 2, func(_ int, e Entity) bool {
		if found == codec.NIHIL {
			found = e.id
		} else {
			ambiguous = true
		}
		return true
	})
	if err != nil {
		return codec.NIHIL, err
	}
	if ambiguous {
		return codec.NIHIL, nil
	}
	return found, nil
}

// UniqueEntity returns the single entity matching syndrome whose own
// signature is disjoint from tabu, or the nil Entity if zero or more
// than one such entity matches. Candidates whose signature intersects
// tabu are skipped entirely — they neither satisfy the search nor count
// toward ambiguity.
func (g *Gnosis) UniqueEntity(ctx context.Context, syndrome, tabu []codec.Identity) (Entity, error) {
	tabuSet := make(map[codec.Identity]bool, len(tabu))
	for _, t := range tabu {
		tabuSet[t] = true
	}

	found := codec.NIHIL
	ambiguous := false
	_, err := g.Select(ctx, [][]codec.Identity{syndrome}, 2, func(_ int, e Entity) bool {
		for _, sign := range e.Signature() {
			if tabuSet[sign] {
				return true
			}
		}
		if found == codec.NIHIL {
			found = e.id
		} else {
			ambiguous = true
		}
		return true
	})
	if err != nil {
		return Entity{}, err
	}
	if ambiguous || found == codec.NIHIL {
		return Entity{}, nil
	}
	return Entity{id: found, g: g}, nil
}

// SetSpurt toggles the shard idle loop between a yielding "spurt" mode
// (lower latency, higher CPU) and a sleeping mode (the default).
func (g *Gnosis) SetSpurt(on bool) { g.spurt.Store(on) }

// Len returns the total number of entities currently held across all
// shards.
func (g *Gnosis) Len() int {
	total := 0
	for _, s := range g.shards {
		total += s.len()
	}
	return total
}
