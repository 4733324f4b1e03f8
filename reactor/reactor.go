// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral reactor surface.

package reactor

import (
	"context"
	"errors"

	"github.com/momentics/hioload-stream/api"
)

var (
	// ErrClosed is returned by Add and Wakeup after the reactor shut down.
	ErrClosed = errors.New("reactor: closed")

	// ErrRefused is returned by AddWith when the builder declined to
	// produce a machine, e.g. a protocol factory refusing a connection.
	ErrRefused = errors.New("reactor: machine refused")
)

// Config customizes a reactor.
type Config struct {
	// PollBatch is the maximum number of readiness events consumed per
	// poll call.
	PollBatch int

	// Shared is the loop-wide user context handed to protocols through
	// Scope.Shared.
	Shared any
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{PollBatch: 128}
}

// Reactor runs admitted event machines on a single goroutine.
type Reactor interface {
	// Add admits a machine: the machine registers its socket and from then
	// on receives Ready, Timeout and Wakeup callbacks until one of them
	// stops it. Add may be called before Run or from a machine callback.
	Add(m api.EventMachine) error

	// AddWith builds the machine with its scope already live, so a
	// protocol factory can arm timers or record the scope while the
	// connection is being accepted. Returning (nil, nil) from build
	// refuses admission; AddWith reports that as ErrRefused and nothing
	// is registered.
	AddWith(build func(scope api.Scope) (api.EventMachine, error)) error

	// Run polls and dispatches until ctx is canceled.
	Run(ctx context.Context) error

	// Close drops every admitted machine and releases the poll descriptor.
	Close() error
}

// New creates the platform reactor.
func New(cfg Config) (Reactor, error) {
	return newReactor(cfg)
}
