// File: api/async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Async is the tagged outcome of every event-machine and protocol callback.

package api

// Async is the outcome of a callback: either continue the connection, or
// stop it. Stop causes deregistration, socket close and destruction of the
// connection; a stopped connection receives no further callbacks.
type Async struct {
	next Protocol
	stop bool
}

// Continue keeps the connection alive. A non-nil next replaces the live
// protocol state; nil keeps the current state, which is the natural choice
// for protocols that mutate themselves behind a pointer receiver.
func Continue(next Protocol) Async {
	return Async{next: next}
}

// Stop terminates the connection.
func Stop() Async {
	return Async{stop: true}
}

// Stopped reports whether the outcome is terminal.
func (a Async) Stopped() bool { return a.stop }

// Next returns the replacement protocol state, or nil for "unchanged".
func (a Async) Next() Protocol { return a.next }
