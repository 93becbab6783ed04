package gnosis

import (
	"context"
	"testing"

	"github.com/Voskan/gnosis/internal/codec"
)

func newTestGnosis(t *testing.T) *Gnosis {
	t.Helper()
	g, err := New(WithShards(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestCongenitalVocabularyIsImmutableAndImmortal(t *testing.T) {
	g := newTestGnosis(t)
	for _, id := range congenitalIdentities {
		sig := g.Signature(id)
		found := map[uint32]bool{}
		for _, s := range sig {
			found[uint32(s)] = true
		}
		if !found[uint32(IMMUTABLE)] {
			t.Fatalf("congenital %d missing IMMUTABLE", id)
		}
		if !found[uint32(IMMORTAL)] {
			t.Fatalf("congenital %d missing IMMORTAL", id)
		}
	}
}

func TestForgetOnImmortalFails(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	if err := g.Forget(ctx, VERB); err != ErrImmortal {
		t.Fatalf("expected ErrImmortal, got %v", err)
	}
}

func TestIncludeExcludeRoundTrip(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	cat, err := g.Entity()
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if err := cat.Incl(ctx, Entity{id: NOUN, g: g}); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	if !cat.Contains(Entity{id: NOUN, g: g}) {
		t.Fatal("expected NOUN in signature")
	}
	if err := cat.Excl(ctx, Entity{id: NOUN, g: g}); err != nil {
		t.Fatalf("Excl: %v", err)
	}
	if cat.Contains(Entity{id: NOUN, g: g}) {
		t.Fatal("expected NOUN removed")
	}
}

func TestForgetPropagatesToDependents(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	parent, _ := g.Entity()
	child, _ := g.Entity()
	if err := child.Incl(ctx, parent); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	if err := parent.Forget(ctx); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if child.Contains(parent) {
		t.Fatal("expected parent removed from child's signature after forget")
	}
}

func TestHeritableSignPropagates(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	heritableTag, _ := g.Entity()
	if err := heritableTag.Incl(ctx, Entity{id: HERITABLE, g: g}); err != nil {
		t.Fatalf("Incl HERITABLE: %v", err)
	}
	carrier, _ := g.Entity()
	if err := carrier.Incl(ctx, heritableTag); err != nil {
		t.Fatalf("Incl carrier<-heritableTag: %v", err)
	}
	target, _ := g.Entity()
	if err := target.Incl(ctx, carrier); err != nil {
		t.Fatalf("Incl target<-carrier: %v", err)
	}
	if !target.Contains(heritableTag) {
		t.Fatal("expected heritableTag to propagate onto target")
	}
}

func TestMutualExclusionDropsGroupMembers(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	colorGroup, _ := g.Entity()
	if err := colorGroup.Incl(ctx, Entity{id: MUTEX, g: g}); err != nil {
		t.Fatalf("Incl MUTEX: %v", err)
	}
	red, _ := g.Entity()
	if err := red.Incl(ctx, colorGroup); err != nil {
		t.Fatalf("Incl red<-colorGroup: %v", err)
	}
	apple, _ := g.Entity()
	if err := apple.Incl(ctx, red); err != nil {
		t.Fatalf("Incl apple<-red: %v", err)
	}
	green, _ := g.Entity()
	if err := green.Incl(ctx, colorGroup); err != nil {
		t.Fatalf("Incl green<-colorGroup: %v", err)
	}
	if err := apple.Incl(ctx, green); err != nil {
		t.Fatalf("Incl apple<-green: %v", err)
	}
	if apple.Contains(red) {
		t.Fatal("expected red excluded once green (same mutex group) was included")
	}
	if !apple.Contains(green) {
		t.Fatal("expected green present")
	}
}

func TestAbsorbReparentsChildren(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	parent, _ := g.Entity()
	child, _ := g.Entity()
	grandchild, _ := g.Entity()
	extraSign, _ := g.Entity()

	if err := child.Incl(ctx, extraSign); err != nil {
		t.Fatalf("Incl child<-extraSign: %v", err)
	}
	if err := grandchild.Incl(ctx, child); err != nil {
		t.Fatalf("Incl grandchild<-child: %v", err)
	}

	if err := parent.Absorb(ctx, child); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if grandchild.Contains(child) {
		t.Fatal("expected grandchild no longer contains forgotten child")
	}
	if !grandchild.Contains(parent) {
		t.Fatal("expected grandchild reparented onto parent")
	}
	if !parent.Contains(extraSign) {
		t.Fatal("expected parent to inherit child's own signs")
	}
}

func TestAbsorbRefusesImmortalChild(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	parent, _ := g.Entity()
	if err := g.Absorb(ctx, parent.id, VERB); err != ErrImmortal {
		t.Fatalf("expected ErrImmortal, got %v", err)
	}
}

func TestSelectMatchesBySyndrome(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	cat, _ := g.Entity()
	if err := cat.Incl(ctx, Entity{id: NOUN, g: g}); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	dog, _ := g.Entity()
	if err := dog.Incl(ctx, Entity{id: NOUN, g: g}); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	run, _ := g.Entity()
	if err := run.Incl(ctx, Entity{id: VERB, g: g}); err != nil {
		t.Fatalf("Incl: %v", err)
	}

	var nouns []uint32
	_, err := g.Select(ctx, [][]codec.Identity{{codec.Identity(NOUN)}}, 16, func(_ int, e Entity) bool {
		nouns = append(nouns, uint32(e.ID()))
		return true
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(nouns) != 2 {
		t.Fatalf("expected 2 nouns, got %d", len(nouns))
	}
}

func TestUniqueEntityIDDetectsAmbiguity(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	tag, _ := g.Entity()
	a, _ := g.Entity()
	if err := a.Incl(ctx, tag); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	id, err := g.UniqueEntityID(ctx, []codec.Identity{codec.Identity(tag.id)})
	if err != nil {
		t.Fatalf("UniqueEntityID: %v", err)
	}
	if id != a.id {
		t.Fatalf("expected unique match %d, got %d", a.id, id)
	}
	b, _ := g.Entity()
	if err := b.Incl(ctx, tag); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	id, err = g.UniqueEntityID(ctx, []codec.Identity{codec.Identity(tag.id)})
	if err != nil {
		t.Fatalf("UniqueEntityID: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected NIHIL for ambiguous match, got %d", id)
	}
}

func TestUniqueEntityExcludesTabuCandidates(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	tag, _ := g.Entity()
	forbidden, _ := g.Entity()
	a, _ := g.Entity()
	b, _ := g.Entity()
	if err := a.Incl(ctx, tag); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	if err := b.Incl(ctx, tag); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	if err := b.Incl(ctx, forbidden); err != nil {
		t.Fatalf("Incl: %v", err)
	}

	// Both a and b match {tag}, but b also carries the tabu sign, so it
	// is skipped rather than counted as a second candidate: a remains
	// the unique match.
	e, err := g.UniqueEntity(ctx, []codec.Identity{codec.Identity(tag.id)}, []codec.Identity{codec.Identity(forbidden.id)})
	if err != nil {
		t.Fatalf("UniqueEntity: %v", err)
	}
	if e.IsNil() || e.id != a.id {
		t.Fatalf("expected unique match %d, got %v", a.id, e)
	}

	// Without the tabu filter, both a and b qualify and the match is
	// ambiguous.
	e, err = g.UniqueEntity(ctx, []codec.Identity{codec.Identity(tag.id)}, nil)
	if err != nil {
		t.Fatalf("UniqueEntity: %v", err)
	}
	if !e.IsNil() {
		t.Fatalf("expected ambiguous match to return the nil entity, got %v", e)
	}
}

func TestEntityPanicsOnCapacityExhaustion(t *testing.T) {
	g, err := New(WithShards(1), WithIdentityBits(1), WithMaxRetries(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()
	if _, err := g.Entity(); err != nil {
		t.Fatalf("Entity: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Entity to panic once the 1-bit identity pool is exhausted")
		}
	}()
	g.Entity()
}

func TestRecoverPanicsOnUnknownIdentity(t *testing.T) {
	g := newTestGnosis(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Recover to panic on an identity that was never allocated")
		}
	}()
	g.Recover(codec.Identity(999999))
}

func TestInclPanicsOnForeignEntity(t *testing.T) {
	g1 := newTestGnosis(t)
	g2 := newTestGnosis(t)
	ctx := context.Background()
	a, _ := g1.Entity()
	b, _ := g2.Entity()

	defer func() {
		if recover() == nil {
			t.Fatal("expected Incl to panic when mixing entities from different Gnosis instances")
		}
	}()
	a.Incl(ctx, b)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := newTestGnosis(t)
	ctx := context.Background()
	a, _ := g.Entity()
	b, _ := g.Entity()
	if err := a.Incl(ctx, b); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	a.SetSequence([]codec.Identity{codec.Identity(b.id), codec.Identity(a.id)})

	dir := t.TempDir()
	if _, _, err := g.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g2 := newTestGnosis(t)
	if _, _, err := g2.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sig := g2.Signature(a.id)
	if len(sig) != 1 || sig[0] != b.id {
		t.Fatalf("expected reloaded signature {%d}, got %v", b.id, sig)
	}
	seq := g2.Sequence(a.id)
	if len(seq) != 2 || seq[0] != b.id || seq[1] != a.id {
		t.Fatalf("expected reloaded sequence [%d %d], got %v", b.id, a.id, seq)
	}
}
