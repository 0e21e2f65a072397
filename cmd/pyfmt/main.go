// Package main is the entry point for the pyfmt CLI.
//
// Build-time variables (version, commit, date) are injected via ldflags
// at release time. During development they default to "dev", "none", and
// "unknown".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmr-tortoise/pyfmt/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Ctrl-C cancels the running formatter (or container) and skips the rest.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, cli.NewRootCommand())
	stop()
	os.Exit(code)
}
