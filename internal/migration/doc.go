// Package migration orchestrates moving installed Homebrew formulae into
// Zerobrew: it builds the dependency-ordered plan, honors risk
// classifications and prior progress, persists state after every attempt,
// and exposes the migrate, status, and cleanup commands.
package migration
