package framing

// channel.go pairs a Receiver and a Transmitter the way the reference
// implementation's Channel does: one local port to listen on, one peer
// address/port to talk to, combined behind a single push/pull surface.
//
// © 2025 gnosis authors. MIT License.

import (
	"fmt"
	"time"
)

// Channel is a bidirectional, acknowledged UDP connection to one peer.
type Channel struct {
	rx *Receiver
	tx *Transmitter
}

// NewChannel binds port for receiving and connects to peerAddr:peerPort
// for sending. It waits up to one second for both workers to come up
// before returning, matching the reference Channel's startup check.
func NewChannel(port int, peerAddr string, peerPort int, opts ...Option) (*Channel, error) {
	rx, err := NewReceiver(port, opts...)
	if err != nil {
		return nil, err
	}
	tx, err := NewTransmitter(peerAddr, peerPort, opts...)
	if err != nil {
		rx.Close()
		return nil, err
	}
	c := &Channel{rx: rx, tx: tx}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Live() {
			return c, nil
		}
		time.Sleep(time.Millisecond)
	}
	if !c.Live() {
		err := fmt.Errorf("framing: channel failed to start: receiver=%v transmitter=%v", rx.Error(), tx.Error())
		c.Stop()
		return nil, err
	}
	return c, nil
}

// Push queues a frame for delivery to the peer.
func (c *Channel) Push(f Frame) bool { return c.tx.Push(f) }

// Pull removes and returns the oldest frame received from the peer.
func (c *Channel) Pull() (Frame, bool) { return c.rx.Pull() }

// Empty reports whether no received frame is waiting.
func (c *Channel) Empty() bool { return c.rx.Empty() }

// Done reports whether every pushed frame has been acknowledged.
func (c *Channel) Done() bool { return c.tx.Done() }

// Live reports whether both the receiver and transmitter are running.
func (c *Channel) Live() bool { return c.rx.Live() && c.tx.Live() }

// Error combines the most recent receiver and transmitter failures.
func (c *Channel) Error() error {
	rxErr, txErr := c.rx.Error(), c.tx.Error()
	if rxErr == nil && txErr == nil {
		return nil
	}
	return fmt.Errorf("receiver: %v; transmitter: %v", rxErr, txErr)
}

// Stop terminates both workers and releases both sockets, blocking until
// each has exited.
func (c *Channel) Stop() {
	c.tx.Close()
	c.rx.Close()
}
