// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the descriptor-backed socket implementation and the
// accepting listener machine that feeds stream connections into a reactor.
package tcp
