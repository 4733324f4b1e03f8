//go:build linux
// +build linux

// File: transport/tcp/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accepting listener: an event machine that turns readability on a
// listening socket into admitted stream connections.

package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/stream"
)

// Listener owns a non-blocking listening socket. Each readability edge is
// drained with accept4 until would-block; every accepted descriptor is
// wrapped in a Socket, run through the protocol factory, and admitted to
// the reactor as a stream connection.
type Listener struct {
	sock    *Socket
	factory api.ProtocolFactory
	admit   Admitter
	retry   backoff.Backoff
}

// Listen binds and listens on addr ("host:port") and returns a listener
// machine ready to be admitted to the reactor.
func Listen(addr string, factory api.ProtocolFactory, admit Admitter) (*Listener, error) {
	ta, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	sa, family := sockaddr(ta)
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %q: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen %q: %w", addr, err)
	}
	return &Listener{
		sock:    NewSocket(fd),
		factory: factory,
		admit:   admit,
		retry: backoff.Backoff{
			Min:    10 * time.Millisecond,
			Max:    time.Second,
			Factor: 2,
			Jitter: true,
		},
	}, nil
}

func sockaddr(ta *net.TCPAddr) (unix.Sockaddr, int) {
	if ip4 := ta.IP.To4(); ip4 != nil || ta.IP == nil {
		sa := &unix.SockaddrInet4{Port: ta.Port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return sa, unix.AF_INET
	}
	sa := &unix.SockaddrInet6{Port: ta.Port}
	copy(sa.Addr[:], ta.IP.To16())
	return sa, unix.AF_INET6
}

// Addr returns the bound address, with the kernel-chosen port for ":0".
func (l *Listener) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(int(l.sock.RawFD()))
	if err != nil {
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}, nil
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}, nil
	}
	return nil, fmt.Errorf("getsockname: unexpected address family")
}

// Register implements api.EventMachine: read interest only, edge-triggered.
func (l *Listener) Register(reg api.Registrator) error {
	return reg.Register(l.sock, api.EventRead, true)
}

// Ready implements api.EventMachine by draining the accept queue.
func (l *Listener) Ready(events api.EventSet, scope api.Scope) api.Async {
	if !events.IsReadable() {
		return api.Continue(nil)
	}
	return l.acceptDrain(scope)
}

func (l *Listener) acceptDrain(scope api.Scope) api.Async {
	for {
		nfd, _, err := unix.Accept4(int(l.sock.RawFD()), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				l.retry.Reset()
				return api.Continue(nil)
			case unix.EINTR, unix.ECONNABORTED:
				continue
			case unix.EMFILE, unix.ENFILE:
				// Out of descriptors. Accepting again right away would spin
				// on a readable listener, so pause and resume from Timeout.
				scope.AddTimeout(l.retry.Duration())
				return api.Continue(nil)
			default:
				return api.Stop()
			}
		}
		l.retry.Reset()
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		s := NewSocket(nfd)
		err = l.admit.AddWith(func(scope api.Scope) (api.EventMachine, error) {
			conn := stream.Accept(s, l.factory, scope)
			if conn == nil {
				return nil, nil
			}
			return conn, nil
		})
		if err != nil {
			// Refused by the factory or not admitted: the socket is still ours.
			_ = s.Close()
		}
	}
}

// Timeout implements api.EventMachine: resume accepting after a descriptor
// exhaustion pause.
func (l *Listener) Timeout(scope api.Scope) api.Async {
	return l.acceptDrain(scope)
}

// Wakeup implements api.EventMachine.
func (l *Listener) Wakeup(api.Scope) api.Async {
	return api.Continue(nil)
}

// Close implements api.EventMachine.
func (l *Listener) Close() error {
	return l.sock.Close()
}
