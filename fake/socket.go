// File: fake/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"bytes"
	"sync"

	"github.com/momentics/hioload-stream/api"
)

type ioStep struct {
	data  []byte
	limit int
	err   error
	eof   bool
}

// Socket is a scripted api.Socket. Reads and writes pop staged steps in
// FIFO order; an exhausted read script reports would-block (so drain loops
// terminate), an exhausted write script accepts everything.
type Socket struct {
	mu     sync.Mutex
	reads  []ioStep
	writes []ioStep
	wrote  bytes.Buffer
	closed bool
}

// NewSocket returns a socket with empty scripts.
func NewSocket() *Socket {
	return &Socket{}
}

// QueueRead stages one successful read delivering data.
func (s *Socket) QueueRead(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, ioStep{data: append([]byte(nil), data...)})
}

// QueueReadErr stages one failing read.
func (s *Socket) QueueReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, ioStep{err: err})
}

// QueueEOF stages a peer shutdown on the read side.
func (s *Socket) QueueEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, ioStep{eof: true})
}

// QueueWrite stages one write accepting at most limit bytes.
func (s *Socket) QueueWrite(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, ioStep{limit: limit})
}

// QueueWriteErr stages one failing write.
func (s *Socket) QueueWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, ioStep{err: err})
}

// QueueWriteEOF stages a peer shutdown observed on the write side.
func (s *Socket) QueueWriteEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, ioStep{eof: true})
}

// Read implements api.Socket.
func (s *Socket) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reads) == 0 {
		return 0, api.ErrWouldBlock
	}
	step := s.reads[0]
	switch {
	case step.err != nil:
		s.reads = s.reads[1:]
		return 0, step.err
	case step.eof:
		s.reads = s.reads[1:]
		return 0, nil
	}
	n := copy(p, step.data)
	if n < len(step.data) {
		// Deliver the remainder on the next read.
		s.reads[0].data = step.data[n:]
	} else {
		s.reads = s.reads[1:]
	}
	return n, nil
}

// Write implements api.Socket.
func (s *Socket) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writes) == 0 {
		s.wrote.Write(p)
		return len(p), nil
	}
	step := s.writes[0]
	s.writes = s.writes[1:]
	switch {
	case step.err != nil:
		return 0, step.err
	case step.eof:
		return 0, nil
	}
	n := len(p)
	if step.limit < n {
		n = step.limit
	}
	s.wrote.Write(p[:n])
	return n, nil
}

// Close implements api.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// RawFD implements api.Socket. Fake sockets have no descriptor.
func (s *Socket) RawFD() uintptr { return 0 }

// Written returns everything the socket accepted so far.
func (s *Socket) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.wrote.Bytes()...)
}

// Closed reports whether Close was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
