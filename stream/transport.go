// File: stream/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import "github.com/momentics/hioload-stream/api"

// Transport is the buffer-access handle a Conn lends to protocol data
// callbacks. It is armed immediately before the callback and expired
// immediately after it returns; a protocol that smuggles the handle into
// its own fields and touches it between callbacks panics instead of
// corrupting connection state.
type Transport struct {
	in, out api.Buf
	live    bool
}

func (t *Transport) arm(in, out api.Buf) {
	t.in, t.out = in, out
	t.live = true
}

func (t *Transport) expire() {
	t.in, t.out = nil, nil
	t.live = false
}

// Input returns the bytes read from the peer and not yet consumed.
func (t *Transport) Input() api.Buf {
	if !t.live {
		panic("stream: Transport used outside its protocol callback")
	}
	return t.in
}

// Output returns the queue of bytes to be written to the peer.
func (t *Transport) Output() api.Buf {
	if !t.live {
		panic("stream: Transport used outside its protocol callback")
	}
	return t.out
}
