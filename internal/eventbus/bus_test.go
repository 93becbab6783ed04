package eventbus

import (
	"testing"

	"github.com/Voskan/gnosis/internal/codec"
)

func TestPublishDispatchesToSubscribers(t *testing.T) {
	b := New()
	var got []codec.Identity
	b.Subscribe(func(old, new codec.Identity, attribute bool) {
		got = append(got, old, new)
	})
	b.Publish(42, codec.NIHIL, false)
	if len(got) != 2 || got[0] != 42 || got[1] != codec.NIHIL {
		t.Fatalf("unexpected dispatch: %v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	h := b.Subscribe(func(old, new codec.Identity, attribute bool) { calls++ })
	b.Publish(1, codec.NIHIL, false)
	b.Unsubscribe(h)
	b.Publish(2, codec.NIHIL, false)
	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("expected no subscribers left, got %d", b.Len())
	}
}

func TestHandleNeverNihil(t *testing.T) {
	b := New()
	for i := 0; i < 100; i++ {
		h := b.Subscribe(func(old, new codec.Identity, attribute bool) {})
		if h == Handle(codec.NIHIL) {
			t.Fatal("Subscribe returned NIHIL handle")
		}
	}
}
