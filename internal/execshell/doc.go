// Package execshell wraps invocations of the Homebrew and Zerobrew binaries
// behind a typed executor that captures outputs, logs lifecycle events, and
// reports failures as structured errors.
package execshell
