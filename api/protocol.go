// File: api/protocol.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The protocol capability set plugged into a stream connection.

package api

// Transport is the transient buffer-access handle passed to data callbacks.
// It is valid only for the duration of the callback that received it;
// retaining it and touching it later panics.
type Transport interface {
	// Input returns the buffer of bytes read from the peer and not yet
	// consumed by the protocol.
	Input() Buf

	// Output returns the buffer of bytes produced by the protocol and not
	// yet written to the peer.
	Output() Buf
}

// ProtocolFactory builds the protocol state for a freshly accepted socket.
// Returning nil refuses the connection before any I/O happens.
type ProtocolFactory func(s Socket, scope Scope) Protocol

// Protocol is a user-supplied byte-stream state machine driven by a stream
// connection. The connection holds exactly one live protocol value and hands
// it to one callback at a time; callbacks never overlap or re-enter.
//
// Callbacks returning Async either continue the connection (optionally
// replacing the protocol state, see Continue) or terminate it with Stop.
// Callbacks must not block and must not retain the Transport or Scope.
type Protocol interface {
	// DataReceived runs after a socket read delivered bytes into the input
	// buffer. The protocol inspects t.Input(), consumes a prefix, and may
	// append to t.Output().
	DataReceived(t Transport, scope Scope) Async

	// DataTransferred runs after a socket write drained bytes from the
	// output buffer.
	DataTransferred(t Transport, scope Scope) Async

	// EofReceived runs exactly once when the peer closes the stream.
	// The connection terminates afterwards; no further callbacks fire.
	EofReceived(scope Scope)

	// ErrorHappened runs exactly once on a non-transient I/O error.
	// The connection terminates afterwards; no further callbacks fire.
	ErrorHappened(err error, scope Scope)

	// Timeout runs when the connection timer armed via Scope.AddTimeout
	// expires.
	Timeout(scope Scope) Async

	// Wakeup runs when some other part of the program nudged this
	// connection via Scope.Wakeup.
	Wakeup(scope Scope) Async
}

// NopProtocol supplies the default behavior for every optional callback:
// data transfers, timeouts and wakeups continue the connection unchanged,
// terminal notifications are ignored. Embed it and implement DataReceived.
type NopProtocol struct{}

func (NopProtocol) DataTransferred(Transport, Scope) Async { return Continue(nil) }

func (NopProtocol) EofReceived(Scope) {}

func (NopProtocol) ErrorHappened(error, Scope) {}

func (NopProtocol) Timeout(Scope) Async { return Continue(nil) }

func (NopProtocol) Wakeup(Scope) Async { return Continue(nil) }
