// Package primitives provides the foundational data structures for the FSM engine:
// the normalized machine model, action references, the shared execution
// Context, events and the error taxonomy.
//
// Core invariants:
// - The normalized model is immutable once Normalize returns
// - Action lists keep their declared order
// - Normalize(Canonical(c)) == c
//
//go:generate go test ./... -race
package primitives
