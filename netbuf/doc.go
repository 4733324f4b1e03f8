// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package netbuf implements the ordered byte queue used on each side of a
// stream connection: socket reads append at the tail, protocols consume a
// prefix from the head, socket writes drain from the head.
//
// Backing arrays are rented from valyala/bytebufferpool so that short-lived
// connections do not churn the allocator.
package netbuf
