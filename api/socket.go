// File: api/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket and Registrator abstractions between connections and the reactor.

package api

// Socket abstracts a connected, non-blocking, byte-oriented duplex channel
// that may or may not be backed by Go's net.Conn.
//
// Read and Write follow raw descriptor semantics: a return of (0, nil) on a
// non-empty slice means the peer has shut down, and not-ready sockets report
// an error matching IsWouldBlock rather than blocking.
type Socket interface {
	// Read reads into a preallocated buffer.
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the socket.
	Write(p []byte) (n int, err error)

	// Close shuts down the socket and releases its descriptor.
	Close() error

	// RawFD returns the underlying OS-level file descriptor.
	RawFD() uintptr
}

// Registrator is the slice of the reactor a machine sees at admission time.
// Implementations record the socket's descriptor and arm readiness delivery
// for the requested interest set.
type Registrator interface {
	Register(s Socket, interest EventSet, edgeTriggered bool) error
}
