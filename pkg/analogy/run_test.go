package analogy

import (
	"context"
	"testing"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

func newTestGnosis(t *testing.T) *gnosis.Gnosis {
	t.Helper()
	g, err := gnosis.New(gnosis.WithShards(2))
	if err != nil {
		t.Fatalf("gnosis.New: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func mustEntity(t *testing.T, g *gnosis.Gnosis) gnosis.Entity {
	t.Helper()
	e, err := g.Entity()
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	return e
}

func mustIncl(t *testing.T, ctx context.Context, e, sign gnosis.Entity) {
	t.Helper()
	if err := e.Incl(ctx, sign); err != nil {
		t.Fatalf("Incl: %v", err)
	}
}

// TestRunRejectsNonInjectiveAssignment covers spec §8 scenario 6: every
// emitted assignment must be an injective map from pattern variables to
// graph identities. It builds a 3-variable chain pattern (A->B->C, A and
// C not directly adjacent) whose only two qualifying candidates, Q and Y,
// mutually contain each other. Without a duplicate check this lets the
// matcher satisfy both edges with the non-injective assignment A=Q, B=Y,
// C=Q; since only two candidates exist for three pairwise-distinct
// variables, the correct result is zero matches.
func TestRunRejectsNonInjectiveAssignment(t *testing.T) {
	ctx := context.Background()
	g := newTestGnosis(t)

	tag := mustEntity(t, g)
	a := mustEntity(t, g)
	b := mustEntity(t, g)
	c := mustEntity(t, g)
	mustIncl(t, ctx, a, b)
	mustIncl(t, ctx, a, tag)
	mustIncl(t, ctx, b, c)
	mustIncl(t, ctx, b, tag)
	mustIncl(t, ctx, c, tag)

	q := mustEntity(t, g)
	y := mustEntity(t, g)
	mustIncl(t, ctx, q, tag)
	mustIncl(t, ctx, q, y)
	mustIncl(t, ctx, y, tag)
	mustIncl(t, ctx, y, q)

	an, err := New(g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pattern := []codec.Identity{a.ID(), b.ID(), c.ID()}

	var matches [][]codec.Identity
	n, err := an.Run(ctx, pattern, nil, nil, func(asg []codec.Identity) bool {
		cp := make([]codec.Identity, len(asg))
		copy(cp, asg)
		matches = append(matches, cp)
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 {
		t.Fatalf("Run emitted %d matches, want 0 (only non-injective assignments satisfy the edges): %v", n, matches)
	}
}

// TestRunEmitsOnlyInjectiveAssignments builds the same chain pattern but
// with three distinct qualifying candidates forming a genuine path
// (Q->Y->Z), so at least one injective assignment exists. Every emitted
// tuple must map distinct pattern variables to distinct graph identities.
func TestRunEmitsOnlyInjectiveAssignments(t *testing.T) {
	ctx := context.Background()
	g := newTestGnosis(t)

	tag := mustEntity(t, g)
	a := mustEntity(t, g)
	b := mustEntity(t, g)
	c := mustEntity(t, g)
	mustIncl(t, ctx, a, b)
	mustIncl(t, ctx, a, tag)
	mustIncl(t, ctx, b, c)
	mustIncl(t, ctx, b, tag)
	mustIncl(t, ctx, c, tag)

	q := mustEntity(t, g)
	y := mustEntity(t, g)
	z := mustEntity(t, g)
	mustIncl(t, ctx, q, tag)
	mustIncl(t, ctx, q, y)
	mustIncl(t, ctx, y, tag)
	mustIncl(t, ctx, y, z)
	mustIncl(t, ctx, z, tag)

	an, err := New(g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pattern := []codec.Identity{a.ID(), b.ID(), c.ID()}

	var matches [][]codec.Identity
	n, err := an.Run(ctx, pattern, nil, nil, func(asg []codec.Identity) bool {
		cp := make([]codec.Identity, len(asg))
		copy(cp, asg)
		matches = append(matches, cp)
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n == 0 {
		t.Fatalf("Run found no matches, want at least the Q/Y/Z path")
	}
	for _, m := range matches {
		seen := make(map[codec.Identity]bool, len(m))
		for _, id := range m {
			if seen[id] {
				t.Fatalf("non-injective assignment emitted: %v", m)
			}
			seen[id] = true
		}
	}
}
