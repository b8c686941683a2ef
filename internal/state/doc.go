// Package state persists migration progress as an atomic JSON snapshot with
// an advisory file lock so interrupted runs resume where they stopped.
package state
