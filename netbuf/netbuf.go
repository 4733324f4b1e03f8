// File: netbuf/netbuf.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package netbuf

import (
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"
)

// minReadBlock is the least spare tail capacity ReadFrom guarantees before
// issuing a read, so that a single readiness edge is drained in few calls.
const minReadBlock = 4096

var pool bytebufferpool.Pool

// Buf is an ordered byte queue over a pooled backing array. The unconsumed
// window is backing[start:]; Consume moves start forward and the window is
// compacted once the consumed prefix dominates the array.
//
// The zero value is ready for use. A Buf is not safe for concurrent use,
// matching the single-threaded reactor model it serves.
type Buf struct {
	bb    *bytebufferpool.ByteBuffer
	start int
}

// New returns an empty queue.
func New() *Buf {
	return &Buf{}
}

func (b *Buf) backing() *bytebufferpool.ByteBuffer {
	if b.bb == nil {
		b.bb = pool.Get()
	}
	return b.bb
}

// Len returns the number of unconsumed bytes held.
func (b *Buf) Len() int {
	if b.bb == nil {
		return 0
	}
	return len(b.bb.B) - b.start
}

// Bytes returns the unconsumed window. Any mutating call invalidates the
// returned slice.
func (b *Buf) Bytes() []byte {
	if b.bb == nil {
		return nil
	}
	return b.bb.B[b.start:]
}

// Write appends p at the tail. The returned error is always nil.
func (b *Buf) Write(p []byte) (int, error) {
	return b.backing().Write(p)
}

// WriteString appends s at the tail. The returned error is always nil.
func (b *Buf) WriteString(s string) (int, error) {
	return b.backing().WriteString(s)
}

// Consume discards n bytes from the head of the queue.
func (b *Buf) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic(fmt.Sprintf("netbuf: consume %d of %d buffered bytes", n, b.Len()))
	}
	if n == 0 {
		return
	}
	b.start += n
	if b.start == len(b.bb.B) {
		// Emptied: reuse the array from the front.
		b.bb.B = b.bb.B[:0]
		b.start = 0
	}
}

// compact moves the unconsumed window to the front of the backing array.
func (b *Buf) compact() {
	if b.start == 0 {
		return
	}
	n := copy(b.bb.B, b.bb.B[b.start:])
	b.bb.B = b.bb.B[:n]
	b.start = 0
}

// ReadFrom performs exactly one read from r into spare tail capacity,
// growing the backing array as needed. A reader reporting io.EOF is
// translated to the descriptor convention (0, nil) so that callers observe
// peer shutdown uniformly.
func (b *Buf) ReadFrom(r io.Reader) (int, error) {
	bb := b.backing()
	if cap(bb.B)-len(bb.B) < minReadBlock {
		if b.start >= minReadBlock {
			b.compact()
		} else {
			grown := make([]byte, len(bb.B), 2*cap(bb.B)+minReadBlock)
			copy(grown, bb.B)
			bb.B = grown
		}
	}
	tail := len(bb.B)
	n, err := r.Read(bb.B[tail:cap(bb.B)])
	if n > 0 {
		bb.B = bb.B[:tail+n]
	}
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// WriteTo performs exactly one write of the unconsumed window to w and
// consumes whatever the write accepted. Writing an empty queue is a no-op
// reported as (0, nil); callers distinguishing peer shutdown must check
// Len before calling.
func (b *Buf) WriteTo(w io.Writer) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	n, err := w.Write(b.Bytes())
	if n > 0 {
		b.Consume(n)
	}
	return n, err
}

// Reset discards all buffered bytes but keeps the backing array.
func (b *Buf) Reset() {
	if b.bb == nil {
		return
	}
	b.bb.B = b.bb.B[:0]
	b.start = 0
}

// Release returns the backing array to the pool. The queue is empty and
// still usable afterwards.
func (b *Buf) Release() {
	if b.bb == nil {
		return
	}
	b.start = 0
	pool.Put(b.bb)
	b.bb = nil
}
