package gnosis

// shard.go implements the single-writer shard: a partition of the entity
// table served by one permanently-running goroutine, queried through a
// two-atomic (idle flag, request pointer) handshake instead of a mutex.
// The protocol, field names and ordering are carried over directly from
// the reference implementation's Segment: a caller reserves the shard by
// flipping idle true→false, installs a *Request, then busy-waits for idle
// to flip back to true before reading results out of the request's Query
// slices.
//
// Map access outside of a Select round (Incl/Excl/Forget/sequence
// assignment) goes through shard.mu instead of the protocol above — the
// reference implementation relies on the caller to serialise those against
// the service thread by convention; here shard.mu makes that guarantee
// structural, following the teacher's own shard.go, which guards its index
// with a sync.RWMutex for the same reason.
//
// © 2025 gnosis authors. MIT License.

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/internal/signset"
)

// Query asks a shard for up to len(Storage) entities whose signature
// contains every identity in Syndrome (an empty Syndrome matches every
// entity). Num and Overrun are populated by the shard once the owning
// Request has been served.
type Query struct {
	Syndrome []codec.Identity
	Storage  []codec.Identity
	Num      int
	Overrun  bool
}

// Reset clears a Query's result fields for reuse across Select rounds.
func (q *Query) Reset() {
	q.Num = 0
	q.Overrun = false
}

// Request is a batch of Queries served together by one shard in a single
// scan of its entity table.
type Request []*Query

const (
	selectAttemptLimit = 8
	noJobPause         = time.Millisecond
)

type shard struct {
	idx int

	mu         sync.RWMutex
	signatures map[codec.Identity]*signset.Signature
	sequences  map[codec.Identity]*signset.Sequence

	request atomic.Pointer[Request]
	live    atomic.Bool
	idle    atomic.Bool
	stop    atomic.Bool

	spurt *atomic.Bool // shared across all shards of one Gnosis
}

func newShard(idx int, spurt *atomic.Bool) *shard {
	s := &shard{
		idx:        idx,
		signatures: make(map[codec.Identity]*signset.Signature),
		sequences:  make(map[codec.Identity]*signset.Sequence),
		spurt:      spurt,
	}
	s.idle.Store(true)
	return s
}

// start launches the service goroutine and blocks until it reports live,
// or timeout elapses.
func (s *shard) start(timeout time.Duration) bool {
	s.stop.Store(false)
	s.live.Store(false)
	go s.serve()
	deadline := time.Now().Add(timeout)
	for !s.live.Load() {
		runtime.Gosched()
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}

// terminate signals the service goroutine to exit and waits for it.
func (s *shard) terminate() {
	s.stop.Store(true)
	for s.live.Load() {
		runtime.Gosched()
	}
}

func (s *shard) serve() {
	s.live.Store(true)
	s.idle.Store(true)
	for !s.stop.Load() {
		r := s.request.Load()
		if r == nil {
			if s.spurt.Load() {
				runtime.Gosched()
			} else {
				time.Sleep(noJobPause)
			}
			continue
		}
		s.scan(*r)
		s.request.Store(nil)
		s.idle.Store(true)
		runtime.Gosched()
	}
	s.live.Store(false)
}

func (s *shard) scan(req Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range req {
		q.Overrun = len(q.Storage) == 0
	}
	for id, sig := range s.signatures {
		for _, q := range req {
			if q.Overrun {
				continue
			}
			if len(q.Syndrome) > sig.Size() {
				continue
			}
			if len(q.Syndrome) == 0 || containsAll(sig, q.Syndrome) {
				q.Storage[q.Num] = id
				q.Num++
				q.Overrun = q.Num >= len(q.Storage)
			}
		}
	}
}

func containsAll(sig *signset.Signature, ids []codec.Identity) bool {
	for _, id := range ids {
		if !sig.Contains(id) {
			return false
		}
	}
	return true
}

// publish installs req for the service goroutine to pick up. It returns
// false if the shard could not be reserved within the attempt budget, in
// which case the caller should retry or fall back.
func (s *shard) publish(req Request) bool {
	reserved := false
	for attempt := 0; attempt < selectAttemptLimit; attempt++ {
		if s.idle.CompareAndSwap(true, false) {
			reserved = true
			break
		}
		runtime.Gosched()
	}
	if !reserved {
		return false
	}
	for attempt := 0; attempt < selectAttemptLimit; attempt++ {
		if s.request.CompareAndSwap(nil, &req) {
			return true
		}
		runtime.Gosched()
	}
	s.idle.Store(true)
	return false
}

// awaitIdle busy-waits until the service goroutine has finished the most
// recently published request.
func (s *shard) awaitIdle() {
	for !s.idle.Load() {
		runtime.Gosched()
	}
}

// --- direct map access, serialised by mu against the scanning goroutine ---

func (s *shard) insert(id codec.Identity) *signset.Signature {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signatures[id]
	if !ok {
		sig = signset.NewSignature(signset.DefaultCapacity)
		s.signatures[id] = sig
	}
	return sig
}

func (s *shard) signature(id codec.Identity) (*signset.Signature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[id]
	return sig, ok
}

func (s *shard) remove(id codec.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.signatures, id)
	delete(s.sequences, id)
}

func (s *shard) exists(id codec.Identity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.signatures[id]
	return ok
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signatures)
}

func (s *shard) sequence(id codec.Identity) (*signset.Sequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.sequences[id]
	return seq, ok
}

func (s *shard) setSequence(id codec.Identity, seq *signset.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == nil || seq.Size() == 0 {
		delete(s.sequences, id)
		return
	}
	s.sequences[id] = seq
}

// forgotten excludes sign from every signature that contains it and
// reports how many were touched. It never touches the entry keyed by sign
// itself (the caller removes that separately via remove).
func (s *shard) forgotten(sign codec.Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sig := range s.signatures {
		if sig.Remove(sign) {
			n++
		}
	}
	return n
}

// each calls f with every (entity, signature) pair currently held, in
// unspecified order. f must not mutate the shard.
func (s *shard) each(f func(id codec.Identity, sig *signset.Signature)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, sig := range s.signatures {
		f(id, sig)
	}
}
