// Package model defines the domain types and value objects for the
// pyfmt CLI.
//
// This package contains pure data structures with no external dependencies.
// A Job describes one formatting run (root, discovered files, forwarded
// flags, formatters) and a Report records what happened to each step.
// Nothing is persisted: every run rediscovers its files from disk.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
