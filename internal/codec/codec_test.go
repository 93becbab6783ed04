package codec

import "testing"

func TestPairUnpairRoundTrip(t *testing.T) {
	cases := []struct{ obj, atr Identity }{
		{0, 0},
		{1, 2},
		{0b0001, 0b0010},
		{0xFFFFFFFF, 0},
		{0, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, c := range cases {
		key := Pair(c.obj, c.atr)
		gotObj, gotAtr := Unpair(key)
		if gotObj != c.obj || gotAtr != c.atr {
			t.Errorf("Unpair(Pair(%d, %d)) = (%d, %d), want (%d, %d)", c.obj, c.atr, gotObj, gotAtr, c.obj, c.atr)
		}
	}
}

func TestPairConcreteScenario(t *testing.T) {
	// spec.md §8 scenario 1: pair(0b0001, 0b0010) = 0b1001
	key := Pair(0b0001, 0b0010)
	if key != 0b1001 {
		t.Fatalf("Pair(0b0001, 0b0010) = %b, want 0b1001", key)
	}
	obj, atr := Unpair(key)
	if obj != 0b0001 || atr != 0b0010 {
		t.Fatalf("Unpair(0b1001) = (%b, %b), want (0b0001, 0b0010)", obj, atr)
	}
}

func TestPairOrderSensitive(t *testing.T) {
	a, b := Identity(1), Identity(2)
	if Pair(a, b) == Pair(b, a) {
		t.Fatalf("Pair(a, b) should differ from Pair(b, a) for a=%d b=%d", a, b)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ids := []Identity{0, 1, 42, 1000000, 0xFFFFFFFF, 16777215}
	for _, id := range ids {
		text := Encode(id)
		got, ok := Decode(text)
		if !ok {
			t.Fatalf("Decode(%q) failed for id %d", text, id)
		}
		if got != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, got)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	if _, ok := Decode("short"); ok {
		t.Fatal("Decode accepted wrong-length text")
	}
	if _, ok := Decode("!!!!!!"); ok {
		t.Fatal("Decode accepted out-of-alphabet text")
	}
}
