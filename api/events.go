// File: api/events.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness event sets delivered by a reactor to stream connections.

package api

// EventSet is a bitmask of readiness directions reported for one socket.
type EventSet uint8

const (
	// EventRead reports that the socket transitioned to readable.
	EventRead EventSet = 1 << iota
	// EventWrite reports that the socket transitioned to writable.
	EventWrite
)

// Has reports whether every bit of ev is present in es.
func (es EventSet) Has(ev EventSet) bool {
	return es&ev == ev
}

// IsReadable reports whether the set carries the read bit.
func (es EventSet) IsReadable() bool { return es.Has(EventRead) }

// IsWritable reports whether the set carries the write bit.
func (es EventSet) IsWritable() bool { return es.Has(EventWrite) }

func (es EventSet) String() string {
	switch {
	case es.Has(EventRead | EventWrite):
		return "readable|writable"
	case es.Has(EventRead):
		return "readable"
	case es.Has(EventWrite):
		return "writable"
	}
	return "none"
}
