// File: stream/conn_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scenario tests for the connection event machine, driven over scripted
// sockets. White-box on purpose: the latch transitions are part of the
// edge-triggered contract and are asserted directly.

package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/fake"
)

func newTestConn(p api.Protocol) (*Conn, *fake.Socket, *fake.Scope) {
	sock := fake.NewSocket()
	return NewConn(sock, p), sock, fake.NewScope()
}

// echoData copies all delivered input to the output queue.
func echoData(t api.Transport, _ api.Scope) api.Async {
	in := t.Input()
	t.Output().Write(in.Bytes())
	in.Consume(in.Len())
	return api.Continue(nil)
}

func TestEchoRoundTrip(t *testing.T) {
	rec := &fake.Recorder{OnDataReceived: echoData}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("hello"))
	res := c.Ready(api.EventRead, scope)

	require.False(t, res.Stopped())
	require.Equal(t, []string{"DataReceived", "DataTransferred"}, rec.Calls)
	require.Equal(t, "hello", string(sock.Written()))
	require.Equal(t, StateActive, c.State())
	require.Equal(t, 0, c.out.Len())
	require.False(t, c.readable, "read drained to would-block must clear the latch")
	require.True(t, c.writable)
}

func TestImmediateClose(t *testing.T) {
	rec := &fake.Recorder{}
	c, sock, scope := newTestConn(rec)

	sock.QueueEOF()
	res := c.Ready(api.EventRead, scope)

	require.True(t, res.Stopped())
	require.Equal(t, []string{"EofReceived"}, rec.Calls)
	require.Equal(t, StateTerminated, c.State())

	// Terminal is absorbing: no further callbacks, whatever arrives.
	sock.QueueRead([]byte("late"))
	require.True(t, c.Ready(api.EventRead, scope).Stopped())
	require.True(t, c.Timeout(scope).Stopped())
	require.True(t, c.Wakeup(scope).Stopped())
	require.Equal(t, []string{"EofReceived"}, rec.Calls)
}

func TestBackpressure(t *testing.T) {
	const total = 1 << 20
	const accepted = 64 << 10
	rec := &fake.Recorder{
		OnDataReceived: func(tr api.Transport, _ api.Scope) api.Async {
			in := tr.Input()
			in.Consume(in.Len())
			tr.Output().Write(bytes.Repeat([]byte("z"), total))
			return api.Continue(nil)
		},
	}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("go"))
	sock.QueueWrite(accepted)
	sock.QueueWriteErr(api.ErrWouldBlock)

	res := c.Ready(api.EventRead, scope)
	require.False(t, res.Stopped())
	require.False(t, c.writable, "would-block on write must clear the latch")
	require.Equal(t, total-accepted, c.out.Len())
	require.Equal(t, StateActive, c.State())

	// Next writability edge resumes the drain and empties the queue.
	res = c.Ready(api.EventWrite, scope)
	require.False(t, res.Stopped())
	require.Equal(t, 0, c.out.Len())
	require.True(t, c.writable)
	require.Len(t, sock.Written(), total)
}

func TestInterruptedReadRetriedInPlace(t *testing.T) {
	rec := &fake.Recorder{}
	c, sock, scope := newTestConn(rec)

	sock.QueueReadErr(api.ErrInterrupted)
	sock.QueueReadErr(api.ErrInterrupted)
	sock.QueueRead([]byte("abc"))

	res := c.Ready(api.EventRead, scope)
	require.False(t, res.Stopped())
	require.Equal(t, []string{"DataReceived"}, rec.Calls)
	require.Equal(t, "abc", rec.Received.String())
	require.False(t, c.readable)
}

func TestErrorMidWrite(t *testing.T) {
	hard := errors.New("connection reset by peer")
	rec := &fake.Recorder{
		OnDataReceived: func(tr api.Transport, _ api.Scope) api.Async {
			in := tr.Input()
			in.Consume(in.Len())
			tr.Output().WriteString("01234567890123456789")
			return api.Continue(nil)
		},
	}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("x"))
	sock.QueueWrite(10)
	sock.QueueWriteErr(hard)

	res := c.Ready(api.EventRead, scope)
	require.True(t, res.Stopped())
	require.Equal(t, []string{"DataReceived", "DataTransferred", "ErrorHappened"}, rec.Calls)
	require.Equal(t, []error{hard}, rec.Errors)
	require.Equal(t, "0123456789", string(sock.Written()))
	require.Equal(t, StateTerminated, c.State())
}

func TestProtocolStopShortCircuits(t *testing.T) {
	rec := &fake.Recorder{
		OnDataReceived: func(tr api.Transport, _ api.Scope) api.Async {
			tr.Output().WriteString("never flushed")
			return api.Stop()
		},
	}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("first"))
	sock.QueueRead([]byte("second"))

	res := c.Ready(api.EventRead, scope)
	require.True(t, res.Stopped())
	// No second read, no flushing drain: Stop discards queued output.
	require.Equal(t, []string{"DataReceived"}, rec.Calls)
	require.Empty(t, sock.Written())
	require.Equal(t, StateTerminated, c.State())
}

func TestEofOnWrite(t *testing.T) {
	rec := &fake.Recorder{OnDataReceived: echoData}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("bye"))
	sock.QueueWriteEOF()

	res := c.Ready(api.EventRead, scope)
	require.True(t, res.Stopped())
	require.Equal(t, []string{"DataReceived", "EofReceived"}, rec.Calls)
}

func TestEmptyEventSetIsNoop(t *testing.T) {
	rec := &fake.Recorder{}
	c, _, scope := newTestConn(rec)

	res := c.Ready(0, scope)
	require.False(t, res.Stopped())
	require.Empty(t, rec.Calls)
	require.True(t, c.writable)
	require.False(t, c.readable)
}

func TestWritabilityWithEmptyOutput(t *testing.T) {
	rec := &fake.Recorder{}
	c, sock, scope := newTestConn(rec)
	c.writable = false

	res := c.Ready(api.EventWrite, scope)
	require.False(t, res.Stopped())
	require.True(t, c.writable, "latch updates even when there is nothing to write")
	require.Empty(t, rec.Calls)
	require.Empty(t, sock.Written())
}

func TestPendingOutputFlushedBeforeRead(t *testing.T) {
	rec := &fake.Recorder{OnDataReceived: echoData}
	c, sock, scope := newTestConn(rec)

	// First activation leaves output pending behind a would-block.
	sock.QueueRead([]byte("queued"))
	sock.QueueWriteErr(api.ErrWouldBlock)
	require.False(t, c.Ready(api.EventRead, scope).Stopped())
	require.Equal(t, 6, c.out.Len())

	// Both directions ready: the pending flush runs before the new read.
	sock.QueueRead([]byte("more"))
	require.False(t, c.Ready(api.EventRead|api.EventWrite, scope).Stopped())
	require.Equal(t, []string{
		"DataReceived",    // first activation
		"DataTransferred", // pending "queued" flushed first
		"DataReceived",    // then the new read of "more"
		"DataTransferred", // then the post-read flush of "more"
	}, rec.Calls)
	require.Equal(t, "queuedmore", string(sock.Written()))
}

func TestTimeoutAndWakeupLift(t *testing.T) {
	rec := &fake.Recorder{}
	c, _, scope := newTestConn(rec)

	require.False(t, c.Timeout(scope).Stopped())
	require.False(t, c.Wakeup(scope).Stopped())
	require.Equal(t, []string{"Timeout", "Wakeup"}, rec.Calls)

	rec.OnWakeup = func(api.Scope) api.Async { return api.Stop() }
	require.True(t, c.Wakeup(scope).Stopped())
	require.Equal(t, StateTerminated, c.State())
}

func TestProtocolReplacement(t *testing.T) {
	second := &fake.Recorder{}
	first := &fake.Recorder{
		OnDataReceived: func(tr api.Transport, _ api.Scope) api.Async {
			in := tr.Input()
			in.Consume(in.Len())
			return api.Continue(second)
		},
	}
	c, sock, scope := newTestConn(first)

	sock.QueueRead([]byte("a"))
	require.False(t, c.Ready(api.EventRead, scope).Stopped())

	sock.QueueRead([]byte("b"))
	require.False(t, c.Ready(api.EventRead, scope).Stopped())

	require.Equal(t, []string{"DataReceived"}, first.Calls)
	require.Equal(t, []string{"DataReceived"}, second.Calls)
	require.Equal(t, "b", second.Received.String())
}

func TestTransportExpiresAfterCallback(t *testing.T) {
	var leaked api.Transport
	rec := &fake.Recorder{
		OnDataReceived: func(tr api.Transport, _ api.Scope) api.Async {
			leaked = tr
			in := tr.Input()
			in.Consume(in.Len())
			return api.Continue(nil)
		},
	}
	c, sock, scope := newTestConn(rec)

	sock.QueueRead([]byte("x"))
	require.False(t, c.Ready(api.EventRead, scope).Stopped())
	require.NotNil(t, leaked)
	require.Panics(t, func() { leaked.Input() })
	require.Panics(t, func() { leaked.Output() })
}

func TestAcceptRefusal(t *testing.T) {
	sock := fake.NewSocket()
	refuse := func(api.Socket, api.Scope) api.Protocol { return nil }
	require.Nil(t, Accept(sock, refuse, fake.NewScope()))

	admit := func(s api.Socket, _ api.Scope) api.Protocol { return &fake.Recorder{} }
	c := Accept(sock, admit, fake.NewScope())
	require.NotNil(t, c)
	require.Equal(t, StateRegistered, c.State())
}

func TestCloseIsIdempotent(t *testing.T) {
	rec := &fake.Recorder{}
	c, sock, _ := newTestConn(rec)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.True(t, sock.Closed())
	require.Equal(t, StateTerminated, c.State())
}

func TestRegisterInterest(t *testing.T) {
	rec := &fake.Recorder{}
	c, sock, _ := newTestConn(rec)

	var gotSock api.Socket
	var gotInterest api.EventSet
	var gotEdge bool
	reg := registratorFunc(func(s api.Socket, interest api.EventSet, edge bool) error {
		gotSock, gotInterest, gotEdge = s, interest, edge
		return nil
	})
	require.NoError(t, c.Register(reg))
	require.Equal(t, api.Socket(sock), gotSock)
	require.Equal(t, api.EventRead|api.EventWrite, gotInterest)
	require.True(t, gotEdge)
}

type registratorFunc func(api.Socket, api.EventSet, bool) error

func (f registratorFunc) Register(s api.Socket, interest api.EventSet, edge bool) error {
	return f(s, interest, edge)
}
