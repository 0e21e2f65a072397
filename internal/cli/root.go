// Package cli implements the cobra-based CLI commands for pyfmt.
//
// Each subcommand (format, check, list, prune) is defined in its own file
// within this package. This file defines the root command, which holds
// the global flags and maps errors onto exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command output to JSON for machine consumption.
	jsonOutput bool

	// verbose enables [verbose] trace lines on stderr.
	verbose bool

	// configPath overrides configuration file discovery.
	configPath string

	// rootDir is the repository to operate on. Defaults to the working directory.
	rootDir string
)

// Version, Commit, and Date are injected from the main package.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root cobra command with every subcommand
// registered. The root command itself only prints help.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyfmt",
		Short: "Run isort and black over a Python repository",
		Long: `pyfmt finds the Python sources of a repository, including extensionless
scripts with a python shebang, activates its virtual environment, and runs
isort and then black over them. The first failing formatter stops the run
and its exit status becomes pyfmt's.

Flags after "--" are passed to every formatter unchanged.`,

		// Errors are printed by Execute, as text or JSON.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: .pyfmt.{yaml,yml,jsonc,json} in the root)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Repository root (default: current directory)")

	rootCmd.AddCommand(NewFormatCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewPruneCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// A CLIError carries its own code, which for formatter failures is the
// formatter's exit status; any other error maps to ExitGeneralError.
func Execute(ctx context.Context, rootCmd *cobra.Command) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return int(model.ExitSuccess)
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(os.Stderr, cliErr.Message, cliErr.Err)
		return int(cliErr.Code)
	}

	printError(os.Stderr, err.Error(), nil)
	return int(model.ExitGeneralError)
}

// printError writes an error message as JSON or text depending on --json.
// Errors always go to stderr so stdout only carries command output.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Error: %s: %v", message, underlying)))
	} else {
		fmt.Fprintln(w, errorStyle.Render("Error: "+message))
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
