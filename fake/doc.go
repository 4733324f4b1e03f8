// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package fake provides scripted implementations of the api contracts for
// testing and development: a socket whose read and write results are staged
// in advance, a scope that records timer and wakeup requests, and a
// protocol that records the callbacks it receives.
package fake
