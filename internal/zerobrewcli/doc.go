// Package zerobrewcli adapts the Zerobrew command line interface into the
// installer operation consumed by the migration engine.
package zerobrewcli
