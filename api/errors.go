// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error kinds and classification helpers for non-blocking socket I/O.

package api

import (
	"errors"
	"syscall"
)

// Sentinel error kinds for socket implementations that are not backed by a
// raw descriptor (test doubles, in-memory pipes). Descriptor-backed sockets
// return errno values directly; the classifiers below match both.
var (
	// ErrWouldBlock reports that the socket is not ready for the attempted
	// direction. Not a failure: it ends a drain and clears the latch.
	ErrWouldBlock = errors.New("would block")

	// ErrInterrupted reports a transient interruption by a signal. The
	// attempted operation is retried in place.
	ErrInterrupted = errors.New("interrupted")

	// ErrConnClosed reports use of a connection after termination.
	ErrConnClosed = errors.New("connection is closed")
)

// IsWouldBlock reports whether err means "socket not ready, try again on the
// next readiness edge".
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK)
}

// IsInterrupted reports whether err is a transient signal interruption.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, syscall.EINTR)
}
