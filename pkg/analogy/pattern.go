package analogy

// pattern.go builds the adjacency matrix for a node pattern and gathers
// each variable's candidate set from the graph, mirroring the reference
// planner's preprocessing stage (gnosis.h's analog()/explore() family).
//
// © 2025 gnosis authors. MIT License.

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// MinPatternSize and MaxPatternSize bound a pattern's variable count, per
// the reference implementation's K_pat.
const (
	MinPatternSize = 2
	MaxPatternSize = 16
)

// ErrPatternTooSmall, ErrPatternTooLarge and ErrPatternDisconnected are
// matcher-precondition failures (§7 category 5): no work is started, no
// state is changed.
var (
	ErrPatternTooSmall     = errors.New("analogy: pattern has fewer than 2 variables")
	ErrPatternTooLarge     = errors.New("analogy: pattern exceeds the maximum variable count")
	ErrPatternDisconnected = errors.New("analogy: pattern's undirected adjacency is not connected")
)

// pattern holds one compiled node pattern: the N template entities, their
// directed adjacency (D[i][j] means pattern[j] is a member of
// pattern[i]'s signature), and each variable's self-loop flag.
type pattern struct {
	vars     []codec.Identity
	adjacent [][]bool
	selfLoop []bool
}

// buildPattern validates size and connectivity and computes adjacency.
func buildPattern(g *gnosis.Gnosis, vars []codec.Identity) (*pattern, error) {
	n := len(vars)
	if n < MinPatternSize {
		return nil, ErrPatternTooSmall
	}
	if n > MaxPatternSize {
		return nil, ErrPatternTooLarge
	}
	adjacent := make([][]bool, n)
	selfLoop := make([]bool, n)
	for i := range adjacent {
		adjacent[i] = make([]bool, n)
	}
	for i, v := range vars {
		for j, w := range vars {
			if g.Contains(v, w) {
				adjacent[i][j] = true
				if i == j {
					selfLoop[i] = true
				}
			}
		}
	}
	if !undirectedConnected(adjacent) {
		return nil, ErrPatternDisconnected
	}
	return &pattern{vars: vars, adjacent: adjacent, selfLoop: selfLoop}, nil
}

// undirectedConnected reports whether the symmetric closure of adjacent
// forms a single connected component, ignoring self-loops.
func undirectedConnected(adjacent [][]bool) bool {
	n := len(adjacent)
	if n == 0 {
		return true
	}
	seen := make([]bool, n)
	stack := []int{0}
	seen[0] = true
	count := 1
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for j := 0; j < n; j++ {
			if j == i || seen[j] {
				continue
			}
			if adjacent[i][j] || adjacent[j][i] {
				seen[j] = true
				count++
				stack = append(stack, j)
			}
		}
	}
	return count == n
}

// edges lists every directed (from, into) pair with adjacent[from][into].
func (p *pattern) edges() [][2]int {
	var out [][2]int
	for i := range p.adjacent {
		for j := range p.adjacent[i] {
			if i != j && p.adjacent[i][j] {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// candidateSets runs one multi-syndrome Select dispatch to populate every
// variable's candidate list: entities whose signature is a superset of
// pattern[i]'s signature minus mask minus the other pattern members,
// excluding every pattern entity and excluding entities with an empty
// signature. A self-looped variable keeps only self-looped candidates.
func (a *Analogy) candidateSets(ctx context.Context, p *pattern, mask []codec.Identity) ([][]codec.Identity, error) {
	n := len(p.vars)
	excluded := make(map[codec.Identity]bool, n)
	for _, v := range p.vars {
		excluded[v] = true
	}
	maskSet := make(map[codec.Identity]bool, len(mask))
	for _, m := range mask {
		maskSet[m] = true
	}

	syndromes := make([][]codec.Identity, n)
	for i, v := range p.vars {
		sig := a.gn.Signature(v)
		syn := make([]codec.Identity, 0, len(sig))
		for _, s := range sig {
			if maskSet[s] || excluded[s] {
				continue
			}
			syn = append(syn, s)
		}
		syndromes[i] = syn
	}

	candidates := make([][]codec.Identity, n)
	_, err := a.gn.Select(ctx, syndromes, a.cfg.candidateLimit, func(i int, e gnosis.Entity) bool {
		if excluded[e.ID()] {
			return true
		}
		if len(e.Signature()) == 0 {
			return true
		}
		if p.selfLoop[i] && !a.gn.Contains(e.ID(), e.ID()) {
			return true
		}
		candidates[i] = append(candidates[i], e.ID())
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("analogy: candidate select: %w", err)
	}
	return candidates, nil
}

// complexity returns log10(len(candidates)), 0 for an empty set (a
// disqualifying condition the caller detects separately).
func complexity(candidates []codec.Identity) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return math.Log10(float64(len(candidates)))
}
