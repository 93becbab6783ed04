package framing

// endpoint.go realizes the reference implementation's Active/EndPoint
// pair as a Go value that owns a worker goroutine built from its loop
// function, rather than a base class with virtual run(). stop()/live()/
// error() carry over directly; terminate/terminated become atomics and
// the one-shot thread becomes a goroutine started in the constructor.
//
// © 2025 gnosis authors. MIT License.

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// SendInterval throttles the transmitter to one send attempt per tick.
	SendInterval = 250 * time.Millisecond
	// AckTimeout bounds how long the transmitter waits for an ack before
	// retrying the same frame on the next tick.
	AckTimeout = 2000 * time.Millisecond
	// RecvTimeout bounds how long the receiver blocks per poll, so its
	// loop can observe a stop request promptly.
	RecvTimeout = 100 * time.Millisecond
)

// Ack is the literal acknowledgment payload the receiver sends back to
// the address a datagram arrived from.
const Ack = "OK"

type role string

const (
	roleReceiver    role = "receiver"
	roleTransmitter role = "transmitter"
)

// endpoint is the shared machinery behind Receiver and Transmitter: a UDP
// socket, a worker goroutine, and Active's stop/live/error surface.
type endpoint struct {
	role role
	conn *net.UDPConn

	cfg     *config
	metrics metricsSink

	terminate  atomic.Bool
	terminated atomic.Bool

	mu   sync.Mutex
	expl error

	done chan struct{}
}

func (e *endpoint) start(loop func()) {
	e.terminated.Store(false)
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		loop()
		e.terminated.Store(true)
	}()
}

// Stop requests the worker goroutine terminate; it does not block.
func (e *endpoint) Stop() { e.terminate.Store(true) }

// Live reports whether the worker goroutine is still running.
func (e *endpoint) Live() bool { return !e.terminated.Load() }

// Error returns the most recent I/O failure observed by the worker, or
// nil if none.
func (e *endpoint) Error() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expl
}

func (e *endpoint) setError(err error) {
	e.mu.Lock()
	e.expl = err
	e.mu.Unlock()
}

// close waits for the worker goroutine to observe terminate and exit,
// then closes the socket.
func (e *endpoint) close() {
	e.terminate.Store(true)
	if e.done != nil {
		<-e.done
	}
	_ = e.conn.Close()
}

// Receiver listens on a local UDP port, queues every well-formed frame it
// decodes, and acknowledges each one to the sender's address.
type Receiver struct {
	endpoint
	inbox *frameQueue
}

// NewReceiver binds port and starts the receive loop.
func NewReceiver(port int, opts ...Option) (*Receiver, error) {
	cfg := defaultConfig()
	applyOptions(cfg, opts)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("framing: listen on port %d: %w", port, err)
	}
	r := &Receiver{inbox: newFrameQueue()}
	r.conn = conn
	r.role = roleReceiver
	r.cfg = cfg
	r.metrics = newMetricsSink(cfg.registry)
	r.start(r.run)
	cfg.logger.Info("framing receiver started", zap.Int("port", port))
	return r, nil
}

func (r *Receiver) run() {
	buf := make([]byte, DataCapacity)
	for !r.terminate.Load() {
		if r.inbox.len() >= QueueCapacity {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		_ = r.conn.SetReadDeadline(time.Now().Add(RecvTimeout))
		n, peer, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			r.setError(err)
			continue
		}
		f, err := Decode(buf[:n])
		if err != nil {
			r.setError(err)
			continue
		}
		payload := make([]byte, len(f.Payload))
		copy(payload, f.Payload)
		f.Payload = payload

		if _, err := r.conn.WriteToUDP([]byte(Ack), peer); err != nil {
			r.setError(err)
			continue
		}
		r.inbox.push(f)
		r.metrics.incReceived(string(roleReceiver))
	}
}

// Pull removes and returns the oldest received frame, if any.
func (r *Receiver) Pull() (Frame, bool) {
	f, ok := r.inbox.peek()
	if ok {
		r.inbox.pop()
	}
	return f, ok
}

// Empty reports whether no frame is waiting to be pulled.
func (r *Receiver) Empty() bool { return r.inbox.empty() }

// Port returns the local UDP port the receiver is bound to, useful when
// NewReceiver was called with port 0 to let the OS choose one.
func (r *Receiver) Port() int { return r.conn.LocalAddr().(*net.UDPAddr).Port }

// Close stops the receive loop and releases the socket.
func (r *Receiver) Close() { r.close() }

// Transmitter connects to one peer and reliably delivers queued frames,
// waiting up to AckTimeout for each send's acknowledgement and resending
// an unacknowledged frame on a later SendInterval tick, with no limit on
// the number of attempts.
type Transmitter struct {
	endpoint
	outbox *frameQueue
}

// NewTransmitter connects to peerAddr:peerPort and starts the send loop.
func NewTransmitter(peerAddr string, peerPort int, opts ...Option) (*Transmitter, error) {
	cfg := defaultConfig()
	applyOptions(cfg, opts)

	raddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", peerAddr, peerPort))
	if err != nil {
		return nil, fmt.Errorf("framing: resolve peer %s:%d: %w", peerAddr, peerPort, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("framing: dial peer %s:%d: %w", peerAddr, peerPort, err)
	}
	t := &Transmitter{outbox: newFrameQueue()}
	t.conn = conn
	t.role = roleTransmitter
	t.cfg = cfg
	t.metrics = newMetricsSink(cfg.registry)
	t.start(t.run)
	cfg.logger.Info("framing transmitter started", zap.String("peer", raddr.String()))
	return t, nil
}

func (t *Transmitter) run() {
	buf := make([]byte, DataCapacity)
	for !t.terminate.Load() {
		time.Sleep(SendInterval)
		f, ok := t.outbox.peek()
		if !ok {
			continue
		}
		out, err := Encode(f)
		if err != nil {
			t.setError(err)
			t.outbox.pop() // malformed frame, never deliverable; drop it
			continue
		}
		if _, err := t.conn.Write(out); err != nil {
			t.setError(err)
			continue
		}
		_ = t.conn.SetReadDeadline(time.Now().Add(AckTimeout))
		n, err := t.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.metrics.incAckTimeout(string(roleTransmitter))
				continue
			}
			t.setError(err)
			continue
		}
		if string(buf[:n]) != Ack {
			continue
		}
		t.outbox.pop()
		t.metrics.incSent(string(roleTransmitter))
	}
}

// Push queues f for delivery, returning false if the outbox is full.
func (t *Transmitter) Push(f Frame) bool { return t.outbox.push(f) }

// Done reports whether every queued frame has been acknowledged.
func (t *Transmitter) Done() bool { return t.outbox.empty() }

// Close stops the send loop and releases the socket.
func (t *Transmitter) Close() { t.close() }
