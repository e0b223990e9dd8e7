// Package session owns the mutable routing state of the relay: the per-user
// conversation sessions and the operator's current selection. All mutation
// goes through the Store so that concurrent updates for the same user are
// serialized.
package session
