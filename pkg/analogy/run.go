package analogy

// run.go drives the compiled Program across a worker pool, partitioning
// the outermost pattern variable's candidate set by stride the way the
// reference matcher's thread pool does (thread_index, thread_count).
//
// © 2025 gnosis authors. MIT License.

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Voskan/gnosis/internal/arena"
	"github.com/Voskan/gnosis/internal/codec"
)

// Run matches pattern against the graph, calling emit once per matching
// tuple (in pattern order) until emit returns false or every candidate
// combination has been tried. mask excludes congenital housekeeping signs
// (ATTRIBUTE, IMMUTABLE, and the like) from candidate gathering; prohibited
// lists exact tuples to skip, letting a caller resume a previous Run
// without repeating matches it has already consumed. Run returns the
// number of matches emitted.
func (a *Analogy) Run(
	ctx context.Context,
	pattern []codec.Identity,
	mask []codec.Identity,
	prohibited [][]codec.Identity,
	emit func([]codec.Identity) bool,
) (int, error) {
	p, err := buildPattern(a.gn, pattern)
	if err != nil {
		return 0, err
	}

	candidates, err := a.candidateSets(ctx, p, mask)
	if err != nil {
		return 0, err
	}

	complexityOf := make([]float64, len(p.vars))
	for i, c := range candidates {
		a.metrics.observeCandidates(len(c))
		if len(c) == 0 {
			return 0, nil
		}
		complexityOf[i] = complexity(c)
	}

	order, prog := planProgram(p, complexityOf)
	if len(order) == 0 {
		return 0, nil
	}
	nodeSteps := prog.nodeSteps()
	if len(nodeSteps) == 0 {
		return 0, fmt.Errorf("analogy: compiled program has no NODE instructions")
	}
	outerVar := order[0]
	outerCandidates := candidates[outerVar]
	resumePos := nodeSteps[0] + 1

	a.gn.SetSpurt(true)
	defer a.gn.SetSpurt(false)

	var (
		mu      sync.Mutex
		count   atomic.Int64
		stopped atomic.Bool
	)

	onMatch := func(asg assignment) bool {
		if stopped.Load() {
			return false
		}
		result := make([]codec.Identity, len(asg))
		copy(result, asg)
		for _, proh := range prohibited {
			if tupleEqual(proh, result) {
				return true
			}
		}
		mu.Lock()
		keep := emit(result)
		mu.Unlock()
		if keep {
			count.Add(1)
		} else {
			stopped.Store(true)
		}
		return keep
	}

	grp, gctx := errgroup.WithContext(ctx)
	threads := a.cfg.threads
	if threads > len(outerCandidates) {
		threads = len(outerCandidates)
	}
	if threads < 1 {
		threads = 1
	}
	for t := 0; t < threads; t++ {
		threadIndex := t
		grp.Go(func() error {
			ar, release := a.pool.Lease()
			defer release()

			asg := assignment(arena.MakeSlice[codec.Identity](ar, len(p.vars)))
			for i := threadIndex; i < len(outerCandidates); i += threads {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if stopped.Load() {
					return nil
				}
				for v := range asg {
					asg[v] = codec.NIHIL
				}
				asg[outerVar] = outerCandidates[i]
				a.walk(prog, resumePos, asg, candidates, onMatch)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil && !stopped.Load() {
		return int(count.Load()), err
	}

	a.metrics.incMatches(int(count.Load()))
	return int(count.Load()), nil
}

// walk interprets prog starting at pos against the bindings accumulated
// so far in asg, recursing once per NODE instruction (one recursion level
// per remaining pattern variable) and returning false the moment onMatch
// asks to stop.
func (a *Analogy) walk(prog Program, pos int, asg assignment, candidates [][]codec.Identity, onMatch func(assignment) bool) bool {
	for {
		if pos >= len(prog) {
			return true
		}
		instr := prog[pos]
		switch instr.Op {
		case OpStop:
			return true
		case OpInit:
			pos++
		case OpNode:
			for _, c := range candidates[instr.Var] {
				if boundElsewhere(asg, instr.Var, c) {
					continue
				}
				asg[instr.Var] = c
				if !a.walk(prog, pos+1, asg, candidates, onMatch) {
					return false
				}
			}
			return true
		case OpEdge:
			if !a.gn.Contains(asg[instr.From], asg[instr.Into]) {
				return true
			}
			pos++
		case OpCall:
			if !onMatch(asg) {
				return false
			}
			pos++
		default:
			pos++
		}
	}
}

// boundElsewhere reports whether c is already bound to a variable other
// than v in asg. Unbound slots hold codec.NIHIL, which never equals a
// real candidate, so a plain scan is enough — this is what keeps the
// matcher's injectivity invariant (§8 scenario 6: the same graph
// identity must never satisfy two distinct pattern variables at once).
func boundElsewhere(asg assignment, v int, c codec.Identity) bool {
	for i, bound := range asg {
		if i != v && bound == c {
			return true
		}
	}
	return false
}

func tupleEqual(a, b []codec.Identity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
