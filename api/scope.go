// File: api/scope.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scope is the reactor context threaded through every protocol callback.

package api

import "time"

// Scope gives a protocol controlled access to reactor facilities: the
// connection's timer, cross-connection wakeups, and loop-wide shared state.
//
// A Scope is borrowed for the duration of one callback; only Wakeup is safe
// to call from other goroutines.
type Scope interface {
	// AddTimeout arms (or re-arms) the connection timer. When it expires the
	// reactor delivers a Timeout callback to the owning connection.
	AddTimeout(d time.Duration)

	// ClearTimeout disarms a previously armed timer, if any.
	ClearTimeout()

	// Wakeup asks the reactor to deliver a Wakeup callback to the owning
	// connection on its next turn. Safe for concurrent use.
	Wakeup() error

	// Shared returns the loop-wide user context configured on the reactor.
	Shared() any
}
