// File: transport/tcp/admitter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import "github.com/momentics/hioload-stream/api"

// Admitter is the slice of the reactor a listener needs: admission of the
// connections it accepts. reactor.Reactor satisfies it.
type Admitter interface {
	AddWith(build func(scope api.Scope) (api.EventMachine, error)) error
}
