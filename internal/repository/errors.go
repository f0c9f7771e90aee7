// Package repository provides access to the remote data store holding the
// membership-number pool and profile rows.  The store speaks PostgREST, so
// every operation here is a fresh HTTP round trip; nothing is cached locally.
// Availability is inherently racy and a stale local cache would only make it
// worse, so correctness wins over latency.
//
// This file defines sentinel errors reused across the repositories.  Higher
// layers use errors.Is to distinguish failure scenarios: ErrNotFound maps a
// missing row, ErrTransient maps network or backend failures that the caller
// may retry or surface as an inline message.
package repository

import "errors"

// ErrNotFound is returned when a point lookup matches no row.  For pool
// lookups within [1, PoolMax] this indicates the pool was not fully seeded
// and is treated as a data-integrity signal, not a user error.
var ErrNotFound = errors.New("not found")

// ErrTransient is returned on network or backend failure.  Callers retry or
// surface it to the user; it is never auto-retried silently inside the
// repository layer.
var ErrTransient = errors.New("transient backend error")
