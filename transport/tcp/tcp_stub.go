//go:build !linux
// +build !linux

// File: transport/tcp/tcp_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package tcp

import (
	"errors"
	"net"

	"github.com/momentics/hioload-stream/api"
)

// Listener is not available on this platform.
type Listener struct{}

// Listen returns an error for unsupported platforms.
func Listen(addr string, factory api.ProtocolFactory, admit Admitter) (*Listener, error) {
	return nil, errors.New("tcp: this platform is not supported")
}

func (l *Listener) Addr() (*net.TCPAddr, error) { return nil, errors.New("tcp: not supported") }
