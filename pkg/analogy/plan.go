package analogy

// plan.go orders a pattern's edges by residual complexity, then compiles
// the assignment order into the bytecode program executed by the worker
// threads. This is a direct translation of spec §4.7's edge-planning
// algorithm: seed on the highest-residual-complexity edge, then greedily
// extend the assigned set one variable at a time.
//
// © 2025 gnosis authors. MIT License.

import "sort"

// scoredEdge pairs an edge with its residual complexity score.
type scoredEdge struct {
	from, into int
	rc         float64
}

// residualComplexity sums complexity[k] for every k not in exclude.
func residualComplexity(complexityOf []float64, exclude map[int]bool) float64 {
	var sum float64
	for k, c := range complexityOf {
		if exclude[k] {
			continue
		}
		sum += c
	}
	return sum
}

// planProgram builds the variable assignment order and the bytecode
// executed to test it, given the pattern's edges and each variable's
// complexity score.
func planProgram(p *pattern, complexityOf []float64) (order []int, prog Program) {
	edges := p.edges()
	if len(edges) == 0 {
		// A connected pattern with N>=2 always has at least one edge in one
		// direction or the other; this is defensive, not reachable in
		// practice given buildPattern's connectivity check.
		return nil, nil
	}

	scored := make([]scoredEdge, len(edges))
	for i, e := range edges {
		scored[i] = scoredEdge{
			from: e[0], into: e[1],
			rc: residualComplexity(complexityOf, map[int]bool{e[0]: true, e[1]: true}),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].rc > scored[j].rc })

	seed := scored[0]
	assigned := map[int]bool{seed.from: true, seed.into: true}
	order = []int{seed.from, seed.into}
	tested := map[[2]int]bool{{seed.from, seed.into}: true}

	remaining := make([]scoredEdge, 0, len(scored)-1)
	for _, e := range scored[1:] {
		remaining = append(remaining, e)
	}

	for len(remaining) > 0 {
		type candidate struct {
			edge     scoredEdge
			newVar   int
			idx      int
			nextStep float64
		}
		var frontier []candidate
		for idx, e := range remaining {
			key := [2]int{e.from, e.into}
			if tested[key] {
				continue
			}
			fromIn, intoIn := assigned[e.from], assigned[e.into]
			if fromIn == intoIn {
				continue // neither or both already assigned: not a frontier edge
			}
			newVar := e.into
			if intoIn {
				newVar = e.from
			}
			exclude := map[int]bool{newVar: true}
			for v := range assigned {
				exclude[v] = true
			}
			frontier = append(frontier, candidate{
				edge: e, newVar: newVar, idx: idx,
				nextStep: residualComplexity(complexityOf, exclude),
			})
		}
		if len(frontier) == 0 {
			break // disconnected remainder; buildPattern's check should prevent this
		}
		sort.SliceStable(frontier, func(i, j int) bool { return frontier[i].nextStep > frontier[j].nextStep })
		best := frontier[0]

		assigned[best.newVar] = true
		order = append(order, best.newVar)
		tested[[2]int{best.edge.from, best.edge.into}] = true
		remaining = append(remaining[:best.idx], remaining[best.idx+1:]...)

		for idx := 0; idx < len(remaining); idx++ {
			e := remaining[idx]
			key := [2]int{e.from, e.into}
			if tested[key] {
				continue
			}
			if assigned[e.from] && assigned[e.into] {
				tested[key] = true
			}
		}
	}

	prog = compileProgram(order, edgesToTest(edges, tested))
	return order, prog
}

// edgesToTest returns every pattern edge that ended up tested during
// planning, in the order of the edges slice. Used to
// drive EDGE instruction emission.
func edgesToTest(edges [][2]int, tested map[[2]int]bool) [][2]int {
	var out [][2]int
	for _, e := range edges {
		if tested[[2]int{e[0], e[1]}] {
			out = append(out, e)
		}
	}
	return out
}
