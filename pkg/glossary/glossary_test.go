package glossary

import (
	"context"
	"sync"
	"testing"

	"github.com/Voskan/gnosis/pkg/attrstore"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

func newTestGlossary(t *testing.T) (*gnosis.Gnosis, *Glossary) {
	t.Helper()
	g, err := gnosis.New(gnosis.WithShards(2))
	if err != nil {
		t.Fatalf("gnosis.New: %v", err)
	}
	t.Cleanup(g.Close)
	gl, err := New(g)
	if err != nil {
		t.Fatalf("glossary.New: %v", err)
	}
	t.Cleanup(gl.Close)
	return g, gl
}

func TestCongenitalNamesSeeded(t *testing.T) {
	g, gl := newTestGlossary(t)
	for _, e := range g.Congenital() {
		name, ok := gnosis.CongenitalName(e.ID())
		if !ok {
			continue
		}
		if gl.Known(name).ID() != e.ID() {
			t.Fatalf("expected %q to resolve to %d", name, e.ID())
		}
	}
}

func TestEntityLooksUpOrCreates(t *testing.T) {
	_, gl := newTestGlossary(t)
	ctx := context.Background()
	first, err := gl.Entity(ctx, "cat")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	second, err := gl.Entity(ctx, "cat")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if first.ID() != second.ID() {
		t.Fatalf("expected same entity for repeated name, got %d and %d", first.ID(), second.ID())
	}
}

func TestEntityDeduplicatesConcurrentCreation(t *testing.T) {
	_, gl := newTestGlossary(t)
	ctx := context.Background()
	const n = 32
	ids := make([]uint32, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			e, err := gl.Entity(ctx, "dog")
			if err != nil {
				t.Errorf("Entity: %v", err)
				return
			}
			ids[i] = uint32(e.ID())
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("expected all concurrent creations to agree, got %v", ids)
		}
	}
}

func TestForgetErasesName(t *testing.T) {
	g, gl := newTestGlossary(t)
	ctx := context.Background()
	e, err := gl.Entity(ctx, "bird")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if err := g.Forget(ctx, e.ID()); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if !gl.Known("bird").IsNil() {
		t.Fatal("expected name erased after forget")
	}
}

func TestLetRefusesToStealTakenName(t *testing.T) {
	g, gl := newTestGlossary(t)
	ctx := context.Background()
	if _, err := gl.Entity(ctx, "fox"); err != nil {
		t.Fatalf("Entity: %v", err)
	}
	b, err := g.Entity()
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if gl.Let(b, "fox") {
		t.Fatal("expected Let to refuse stealing a name already bound to another identity")
	}
}

func TestDefinitionRendersNameAndAttribute(t *testing.T) {
	g, gl := newTestGlossary(t)
	ctx := context.Background()
	store := attrstore.NewMemStorage(g)

	cat, err := gl.Entity(ctx, "cat")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	age, err := gl.Entity(ctx, "age")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if err := g.Incl(ctx, age.ID(), gnosis.ATTRIBUTE); err != nil {
		t.Fatalf("Incl ATTRIBUTE: %v", err)
	}
	if err := cat.Incl(ctx, age); err != nil {
		t.Fatalf("Incl: %v", err)
	}
	store.Put(attrstore.Key(cat.ID(), age.ID()), attrstore.IntCargo(3))

	def := gl.Definition(cat, store, nil)
	if !containsAll(def, "cat:", "age:=3", " .") {
		t.Fatalf("unexpected definition: %q", def)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		found := false
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g, gl := newTestGlossary(t)
	ctx := context.Background()
	if _, err := gl.Entity(ctx, "owl"); err != nil {
		t.Fatalf("Entity: %v", err)
	}
	dir := t.TempDir()
	if _, err := gl.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g2, err := gnosis.New(gnosis.WithShards(2))
	if err != nil {
		t.Fatalf("gnosis.New: %v", err)
	}
	defer g2.Close()

	// g2 needs the same identities g had, so round-trip through Gnosis
	// Save/Load first.
	gdir := t.TempDir()
	if _, _, err := g.Save(gdir); err != nil {
		t.Fatalf("gnosis Save: %v", err)
	}
	if _, _, err := g2.Load(gdir); err != nil {
		t.Fatalf("gnosis Load: %v", err)
	}
	gl2, err := New(g2)
	if err != nil {
		t.Fatalf("glossary.New: %v", err)
	}
	defer gl2.Close()
	if _, err := gl2.Load(dir); err != nil {
		t.Fatalf("glossary Load: %v", err)
	}
	if gl2.Known("owl").IsNil() {
		t.Fatal("expected owl to resolve after reload")
	}
}

func TestSaveAllLoadAllRoundTrip(t *testing.T) {
	_, gl := newTestGlossary(t)
	ctx := context.Background()
	owl, err := gl.Entity(ctx, "owl")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	tag, err := gl.Entity(ctx, "nocturnal")
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if err := owl.Incl(ctx, tag); err != nil {
		t.Fatalf("Incl: %v", err)
	}

	dir := t.TempDir()
	if _, _, _, err := gl.SaveAll(dir); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	g2, err := gnosis.New(gnosis.WithShards(2))
	if err != nil {
		t.Fatalf("gnosis.New: %v", err)
	}
	defer g2.Close()
	gl2, err := New(g2)
	if err != nil {
		t.Fatalf("glossary.New: %v", err)
	}
	defer gl2.Close()

	if _, _, _, err := gl2.LoadAll(dir); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	owl2 := gl2.Known("owl")
	tag2 := gl2.Known("nocturnal")
	if owl2.IsNil() || tag2.IsNil() {
		t.Fatal("expected owl and nocturnal to resolve after LoadAll")
	}
	if !g2.Contains(owl2.ID(), tag2.ID()) {
		t.Fatal("expected owl to still contain nocturnal after LoadAll")
	}
}
