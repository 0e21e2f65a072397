// Package runner invokes the configured formatters over a discovered file list.
//
// Formatters are external programs, started via os/exec (or any other
// Executor, such as the container backend in internal/docker). The Pipeline
// runs them strictly in sequence and stops at the first failure, so a later
// formatter never sees files an earlier one choked on.
package runner
