// File: fake/scope.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"
	"time"
)

// Scope is a recording api.Scope for tests that drive a connection without
// a reactor.
type Scope struct {
	mu          sync.Mutex
	timeouts    []time.Duration
	cleared     int
	wakeups     int
	SharedValue any
}

// NewScope returns an empty recording scope.
func NewScope() *Scope {
	return &Scope{}
}

// AddTimeout implements api.Scope.
func (s *Scope) AddTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts = append(s.timeouts, d)
}

// ClearTimeout implements api.Scope.
func (s *Scope) ClearTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

// Wakeup implements api.Scope.
func (s *Scope) Wakeup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wakeups++
	return nil
}

// Shared implements api.Scope.
func (s *Scope) Shared() any { return s.SharedValue }

// Timeouts returns every duration passed to AddTimeout.
func (s *Scope) Timeouts() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.timeouts...)
}

// Wakeups returns the number of Wakeup calls.
func (s *Scope) Wakeups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wakeups
}
