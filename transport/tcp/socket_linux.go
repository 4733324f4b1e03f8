//go:build linux
// +build linux

// File: transport/tcp/socket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw descriptor socket for Unix-like systems.

package tcp

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Socket is an api.Socket over a non-blocking file descriptor. Read and
// Write surface errno values directly; api.IsWouldBlock and
// api.IsInterrupted classify them.
type Socket struct {
	fd     int
	closed atomic.Bool
}

// NewSocket wraps an already non-blocking descriptor.
func NewSocket(fd int) *Socket {
	return &Socket{fd: fd}
}

// Read implements api.Socket. A (0, nil) return on a non-empty slice means
// the peer closed its write side.
func (s *Socket) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Write implements api.Socket.
func (s *Socket) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Close implements api.Socket. Idempotent.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(s.fd)
}

// RawFD implements api.Socket.
func (s *Socket) RawFD() uintptr { return uintptr(s.fd) }
