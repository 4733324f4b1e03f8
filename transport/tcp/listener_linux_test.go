//go:build linux
// +build linux

// File: transport/tcp/listener_linux_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/reactor"
	"github.com/momentics/hioload-stream/transport/tcp"
)

type echoProto struct {
	api.NopProtocol
}

func (echoProto) DataReceived(t api.Transport, _ api.Scope) api.Async {
	in := t.Input()
	t.Output().Write(in.Bytes())
	in.Consume(in.Len())
	return api.Continue(nil)
}

func startLoop(t *testing.T, r reactor.Reactor) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return func() {
		stop()
		require.NoError(t, <-done)
		require.NoError(t, r.Close())
	}
}

func TestListenerAcceptsAndEchoes(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := reactor.New(reactor.DefaultConfig())
	require.NoError(t, err)

	ln, err := tcp.Listen("127.0.0.1:0", func(api.Socket, api.Scope) api.Protocol {
		return echoProto{}
	}, r)
	require.NoError(t, err)
	require.NoError(t, r.Add(ln))

	addr, err := ln.Addr()
	require.NoError(t, err)
	require.NotZero(t, addr.Port)

	stop := startLoop(t, r)
	defer stop()

	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello, stream"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 13)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "hello, stream", string(buf))

	// A second concurrent client gets its own connection machine.
	conn2, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	defer conn2.Close()
	_, err = conn2.Write([]byte("two"))
	require.NoError(t, err)
	require.NoError(t, conn2.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf = make([]byte, 3)
	_, err = io.ReadFull(conn2, buf)
	require.NoError(t, err)
	require.Equal(t, "two", string(buf))
}

func TestListenerFactoryRefusal(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := reactor.New(reactor.DefaultConfig())
	require.NoError(t, err)

	ln, err := tcp.Listen("127.0.0.1:0", func(api.Socket, api.Scope) api.Protocol {
		return nil
	}, r)
	require.NoError(t, err)
	require.NoError(t, r.Add(ln))

	addr, err := ln.Addr()
	require.NoError(t, err)

	stop := startLoop(t, r)
	defer stop()

	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	// The refused socket is closed before any I/O: the client sees EOF.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var b [1]byte
	_, err = conn.Read(b[:])
	require.ErrorIs(t, err, io.EOF)
}
