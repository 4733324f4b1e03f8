// File: stream/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The connection event machine: readiness in, socket I/O and protocol
// callbacks out.

package stream

import (
	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/netbuf"
)

// State is the lifecycle phase of a Conn.
type State uint8

const (
	// StateRegistered means the connection is admitted but has not yet
	// handled a readiness notification.
	StateRegistered State = iota
	// StateActive means the connection is exchanging data.
	StateActive
	// StateTerminated is absorbing: the connection handles no further
	// events and must be closed by its owner.
	StateTerminated
)

// Conn drives one connected socket against one protocol state machine.
//
// All methods must be called from the owning reactor's goroutine; a Conn is
// never shared between threads and holds no locks.
type Conn struct {
	sock api.Socket
	in   api.Buf
	out  api.Buf

	// readable and writable cache the kernel's last readiness report per
	// direction. They are set by delivered events and cleared only by an
	// observed would-block, never speculatively.
	readable bool
	writable bool

	proto  api.Protocol
	state  State
	closed bool
	tr     Transport
}

// NewConn wraps a freshly accepted socket and its protocol state.
//
// The writable latch starts true: an accepted socket is writable on every
// platform this library targets, so the first flush probes the socket
// instead of waiting for an edge that may never be delivered.
func NewConn(s api.Socket, p api.Protocol) *Conn {
	return &Conn{
		sock:     s,
		in:       netbuf.New(),
		out:      netbuf.New(),
		readable: false,
		writable: true,
		proto:    p,
	}
}

// Accept runs the protocol factory for a freshly accepted socket and wraps
// the result. A nil return means the factory refused the connection; the
// caller still owns the socket and must close it.
func Accept(s api.Socket, factory api.ProtocolFactory, scope api.Scope) *Conn {
	p := factory(s, scope)
	if p == nil {
		return nil
	}
	return NewConn(s, p)
}

// Socket returns the connection's socket.
func (c *Conn) Socket() api.Socket { return c.sock }

// State returns the connection's lifecycle phase.
func (c *Conn) State() State { return c.state }

// Register admits the socket to the reactor with interest in both
// directions, edge-triggered.
func (c *Conn) Register(reg api.Registrator) error {
	return reg.Register(c.sock, api.EventRead|api.EventWrite, true)
}

// Ready converts one readiness notification into maximum forward progress:
//
//  1. latch the delivered directions;
//  2. if writability arrived and output is pending, drain output;
//  3. if readability arrived, drain the socket through DataReceived;
//  4. drain output again, so bytes enqueued by DataReceived leave in this
//     same activation instead of waiting for the next writable edge.
//
// Any terminal outcome (peer close, hard error, protocol stop)
// short-circuits the remaining steps and stops the machine.
func (c *Conn) Ready(events api.EventSet, scope api.Scope) api.Async {
	if c.state == StateTerminated {
		return api.Stop()
	}
	c.state = StateActive

	if events.IsWritable() {
		c.writable = true
		if c.out.Len() > 0 && !c.writeDrain(scope) {
			return api.Stop()
		}
	}
	if events.IsReadable() {
		c.readable = true
		if !c.readDrain(scope) {
			return api.Stop()
		}
	}
	if c.writable && c.out.Len() > 0 && !c.writeDrain(scope) {
		return api.Stop()
	}
	return api.Continue(nil)
}

// Timeout delivers the connection timer to the protocol.
//
// Output the protocol enqueues here is flushed on the next readiness
// activation; timer and wakeup paths never touch the socket.
func (c *Conn) Timeout(scope api.Scope) api.Async {
	if c.state == StateTerminated {
		return api.Stop()
	}
	return c.lift(c.proto.Timeout(scope))
}

// Wakeup delivers a cross-connection nudge to the protocol.
func (c *Conn) Wakeup(scope api.Scope) api.Async {
	if c.state == StateTerminated {
		return api.Stop()
	}
	return c.lift(c.proto.Wakeup(scope))
}

// Close releases the socket and returns the buffers to their pool.
// Idempotent; called by the reactor after any terminal outcome.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.state = StateTerminated
	c.proto = nil
	if r, ok := c.in.(interface{ Release() }); ok {
		r.Release()
	}
	if r, ok := c.out.(interface{ Release() }); ok {
		r.Release()
	}
	return c.sock.Close()
}

// writeDrain writes pending output until the queue empties or the socket
// pushes back. Reports false when the connection terminated.
func (c *Conn) writeDrain(scope api.Scope) bool {
	for c.out.Len() > 0 {
		n, err := c.out.WriteTo(c.sock)
		switch {
		case err == nil && n == 0:
			// Peer closed its read side.
			c.eof(scope)
			return false
		case err == nil:
			if !c.onData(func(p api.Protocol) api.Async {
				return p.DataTransferred(&c.tr, scope)
			}) {
				return false
			}
		case api.IsWouldBlock(err):
			c.writable = false
			return true
		case api.IsInterrupted(err):
			continue
		default:
			c.fail(err, scope)
			return false
		}
	}
	return true
}

// readDrain reads from the socket until would-block, feeding every chunk
// through DataReceived. Reports false when the connection terminated.
func (c *Conn) readDrain(scope api.Scope) bool {
	for {
		n, err := c.in.ReadFrom(c.sock)
		switch {
		case err == nil && n == 0:
			// Peer closed its write side.
			c.eof(scope)
			return false
		case err == nil:
			if !c.onData(func(p api.Protocol) api.Async {
				return p.DataReceived(&c.tr, scope)
			}) {
				return false
			}
		case api.IsWouldBlock(err):
			c.readable = false
			return true
		case api.IsInterrupted(err):
			continue
		default:
			c.fail(err, scope)
			return false
		}
	}
}

// onData arms the transport view, runs one data callback, and expires the
// view again. Reports false when the callback stopped the connection.
func (c *Conn) onData(call func(api.Protocol) api.Async) bool {
	c.tr.arm(c.in, c.out)
	res := call(c.proto)
	c.tr.expire()
	if res.Stopped() {
		c.state = StateTerminated
		c.proto = nil
		return false
	}
	if next := res.Next(); next != nil {
		c.proto = next
	}
	return true
}

// lift translates a protocol outcome into a machine outcome for the
// buffer-free timer and wakeup paths.
func (c *Conn) lift(res api.Async) api.Async {
	if res.Stopped() {
		c.state = StateTerminated
		c.proto = nil
		return api.Stop()
	}
	if next := res.Next(); next != nil {
		c.proto = next
	}
	return api.Continue(nil)
}

// eof hands the terminal peer-close notification to the protocol exactly
// once and terminates the machine.
func (c *Conn) eof(scope api.Scope) {
	p := c.proto
	c.state = StateTerminated
	c.proto = nil
	p.EofReceived(scope)
}

// fail hands a hard I/O error to the protocol exactly once and terminates
// the machine.
func (c *Conn) fail(err error, scope api.Scope) {
	p := c.proto
	c.state = StateTerminated
	c.proto = nil
	p.ErrorHappened(err, scope)
}
