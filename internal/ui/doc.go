// Package ui renders human-facing console output: colored status lines for
// migration results and verbose echoes of the package-manager commands the
// tool runs.
package ui
