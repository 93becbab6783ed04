package framing

import (
	"testing"
	"time"
)

func TestChannelDeliversFrameAndAcks(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises real loopback UDP timing")
	}

	rxA, err := NewReceiver(0)
	if err != nil {
		t.Fatalf("NewReceiver A: %v", err)
	}
	defer rxA.Close()
	rxB, err := NewReceiver(0)
	if err != nil {
		t.Fatalf("NewReceiver B: %v", err)
	}
	defer rxB.Close()

	txA, err := NewTransmitter("127.0.0.1", rxB.Port())
	if err != nil {
		t.Fatalf("NewTransmitter A: %v", err)
	}
	defer txA.Close()

	chanA := &Channel{rx: rxA, tx: txA}

	f := Frame{ID: PadID("1"), Prefix: PrefixOriginal, Payload: []byte("who are you")}
	if !chanA.Push(f) {
		t.Fatalf("Push: queue rejected frame")
	}

	deadline := time.Now().Add(3 * time.Second)
	var got Frame
	var ok bool
	for time.Now().Before(deadline) {
		got, ok = rxB.Pull()
		if ok {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !ok {
		t.Fatalf("frame never arrived at rxB")
	}
	if got.ID != f.ID || got.Prefix != f.Prefix || string(got.Payload) != string(f.Payload) {
		t.Fatalf("received %+v, want %+v", got, f)
	}

	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if chanA.Done() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("transmitter never observed the ack")
}

func TestQueueRejectsPushBeyondCapacity(t *testing.T) {
	q := newFrameQueue()
	for i := 0; i < QueueCapacity; i++ {
		if !q.push(Frame{ID: PadID("1")}) {
			t.Fatalf("push %d: unexpectedly rejected", i)
		}
	}
	if q.push(Frame{ID: PadID("1")}) {
		t.Fatalf("push beyond capacity: want rejection")
	}
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := newFrameQueue()
	q.push(Frame{ID: PadID("1"), Prefix: PrefixInfo})
	if _, ok := q.peek(); !ok {
		t.Fatalf("peek: want a frame")
	}
	if q.len() != 1 {
		t.Fatalf("len after peek = %d, want 1", q.len())
	}
	q.pop()
	if !q.empty() {
		t.Fatalf("queue not empty after pop")
	}
}
