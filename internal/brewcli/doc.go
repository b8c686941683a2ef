// Package brewcli adapts the Homebrew command line interface into typed
// inventory operations used across the migration tooling.
package brewcli
