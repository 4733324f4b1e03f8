// File: api/machine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventMachine is the contract a reactor drives.

package api

// EventMachine is anything a reactor can admit and deliver events to:
// stream connections and accepting listeners both implement it.
//
// The reactor calls the four event methods sequentially from its own
// goroutine; they never overlap for one machine. Any method returning a
// stopped Async is the machine's last: the reactor deregisters the
// descriptor and calls Close.
type EventMachine interface {
	// Register admits the machine's socket to the reactor. Called once.
	Register(reg Registrator) error

	// Ready handles a readiness notification.
	Ready(events EventSet, scope Scope) Async

	// Timeout handles expiry of the machine's timer.
	Timeout(scope Scope) Async

	// Wakeup handles a cross-connection nudge.
	Wakeup(scope Scope) Async

	// Close releases the machine's socket and buffers. Idempotent.
	Close() error
}
