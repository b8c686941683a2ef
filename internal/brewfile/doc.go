// Package brewfile renders the installed inventory as a Brewfile for backup
// before migration.
package brewfile
