// Package inventory defines the package record model shared by the Homebrew
// reader, the Zerobrew installer, and the migration engine.
package inventory
