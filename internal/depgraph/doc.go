// Package depgraph builds the installed-package dependency graph and derives
// the deterministic installation order used by the migration engine.
package depgraph
