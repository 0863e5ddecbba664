// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
// Callers should refetch the row and retry with the fresh status version.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrUnknownPhase indicates a registry lookup with a phase code that has no
// routing entry. This is a configuration fault and is never defaulted.
var ErrUnknownPhase = errors.New("unknown phase code")

// ErrUnknownTier indicates a registry or policy lookup with a tier that has
// no entry. This is a configuration fault and is never defaulted.
var ErrUnknownTier = errors.New("unknown tier")

// ErrBudgetExceeded indicates the hard per-cycle or order-level cost ceiling
// was breached. It routes the order into protocol exit rather than failing.
var ErrBudgetExceeded = errors.New("hard cost ceiling exceeded")
