// Package risk grades installed packages by migration safety using a
// data-driven keep rule table and dependency-graph propagation.
package risk
