// File: api/buf.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ordered byte queue contract consumed by stream connections.

package api

import "io"

// Buf is an ordered byte queue: data read from a socket is appended at the
// tail, protocols consume a prefix from the head.
//
// ReadFrom and WriteTo perform exactly one I/O operation per call so that a
// caller's drain loop stays in control of retry and latch bookkeeping. Both
// report (0, nil) for peer shutdown and pass socket errors through with
// their kind intact (see IsWouldBlock, IsInterrupted).
type Buf interface {
	// Len returns the number of unconsumed bytes held.
	Len() int

	// Bytes returns the unconsumed window. The slice is invalidated by any
	// mutating call.
	Bytes() []byte

	// Write appends p at the tail. It never fails.
	Write(p []byte) (n int, err error)

	// WriteString appends s at the tail.
	WriteString(s string) (n int, err error)

	// Consume discards n bytes from the head. n must not exceed Len.
	Consume(n int)

	// ReadFrom performs one read from r into spare tail capacity.
	ReadFrom(r io.Reader) (n int, err error)

	// WriteTo performs one write of the unconsumed window to w and consumes
	// the bytes the write accepted.
	WriteTo(w io.Writer) (n int, err error)
}
