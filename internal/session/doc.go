// Package session holds the per-user workflow state machine and the store
// that guards it.
//
// The state set and transition table are closed: every (state, event) pair
// either resolves to a defined transition or is rejected for the caller to
// report as a no-op. The store provides per-key exclusive critical sections
// so concurrent events for one user serialize while different users proceed
// independently. State is in-memory only; durability is an explicit non-goal.
package session
