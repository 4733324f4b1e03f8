// File: fake/recorder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"bytes"

	"github.com/momentics/hioload-stream/api"
)

// Recorder is an api.Protocol that records every callback it receives, in
// order, and lets a test override the outcome of each one. With no
// overrides it consumes all delivered input and continues unchanged.
type Recorder struct {
	Calls    []string
	Received bytes.Buffer
	Errors   []error

	OnDataReceived    func(t api.Transport, scope api.Scope) api.Async
	OnDataTransferred func(t api.Transport, scope api.Scope) api.Async
	OnTimeout         func(scope api.Scope) api.Async
	OnWakeup          func(scope api.Scope) api.Async
}

// DataReceived implements api.Protocol.
func (r *Recorder) DataReceived(t api.Transport, scope api.Scope) api.Async {
	r.Calls = append(r.Calls, "DataReceived")
	if r.OnDataReceived != nil {
		return r.OnDataReceived(t, scope)
	}
	in := t.Input()
	r.Received.Write(in.Bytes())
	in.Consume(in.Len())
	return api.Continue(nil)
}

// DataTransferred implements api.Protocol.
func (r *Recorder) DataTransferred(t api.Transport, scope api.Scope) api.Async {
	r.Calls = append(r.Calls, "DataTransferred")
	if r.OnDataTransferred != nil {
		return r.OnDataTransferred(t, scope)
	}
	return api.Continue(nil)
}

// EofReceived implements api.Protocol.
func (r *Recorder) EofReceived(api.Scope) {
	r.Calls = append(r.Calls, "EofReceived")
}

// ErrorHappened implements api.Protocol.
func (r *Recorder) ErrorHappened(err error, _ api.Scope) {
	r.Calls = append(r.Calls, "ErrorHappened")
	r.Errors = append(r.Errors, err)
}

// Timeout implements api.Protocol.
func (r *Recorder) Timeout(scope api.Scope) api.Async {
	r.Calls = append(r.Calls, "Timeout")
	if r.OnTimeout != nil {
		return r.OnTimeout(scope)
	}
	return api.Continue(nil)
}

// Wakeup implements api.Protocol.
func (r *Recorder) Wakeup(scope api.Scope) api.Async {
	r.Calls = append(r.Calls, "Wakeup")
	if r.OnWakeup != nil {
		return r.OnWakeup(scope)
	}
	return api.Continue(nil)
}
