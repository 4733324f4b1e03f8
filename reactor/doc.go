// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides a single-threaded, edge-triggered readiness loop
// that drives api.EventMachine values: stream connections and accepting
// listeners. One reactor owns one goroutine; machines admitted to it never
// see overlapping callbacks. Linux is backed by epoll; other platforms get
// a constructor error.
package reactor
