// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the contract surface of hioload-stream: the Protocol
// callback set, the Async outcome type, readiness event sets, and the Socket,
// Scope and Registrator interfaces connecting stream connections to a reactor.
//
// The package is intentionally dependency-free so that protocols, reactors
// and test doubles can all be written against it without pulling in any
// platform-specific code.
package api
