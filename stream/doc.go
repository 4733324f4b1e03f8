// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package stream implements the connection-level event machine sitting
// between an edge-triggered reactor and a user-supplied byte-stream
// protocol.
//
// A Conn owns one non-blocking socket, an input and an output byte queue,
// and per-direction readiness latches. Each readiness notification is
// turned into one activation: drain pending output while the socket accepts
// it, drain the socket's input through the protocol's DataReceived, then
// drain output once more so that bytes the protocol just produced leave in
// the same reactor tick. A latch is cleared only by observing a would-block
// result; under edge-triggered delivery that discipline is what keeps
// readiness from ever being lost.
package stream
