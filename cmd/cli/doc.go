// Package cli assembles the zb-migrate command hierarchy: configuration
// loading, logger construction, and the subcommands that inspect, export,
// and migrate a Homebrew installation into Zerobrew.
package cli
