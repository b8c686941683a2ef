// Package inspect answers read-only questions about the installed Homebrew
// package set: listings, migration risk analysis, and pending updates.
package inspect
