package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pyfmt/internal/docker"
	"github.com/mmr-tortoise/pyfmt/internal/model"
)

type pruneFlags struct {
	all bool
}

// NewPruneCommand creates the "prune" command.
//
// Formatter containers are removed when a run finishes, but a killed
// pyfmt process can leave them behind. prune finds them by label.
func NewPruneCommand() *cobra.Command {
	flags := &pruneFlags{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove leftover formatter containers",
		Long: `Remove containers created by "pyfmt format --docker" that were left behind,
for example by an interrupted run. By default only containers for the
current repository root are removed.

Examples:
  pyfmt prune
  pyfmt prune --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.all, "all", false, "Remove leftover containers for every repository")
	return cmd
}

func runPrune(ctx context.Context, flags *pruneFlags) error {
	root := ""
	if !flags.all {
		r, err := resolveRoot(ctx, rootDir)
		if err != nil {
			return err
		}
		root = r
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	removed, err := docker.PruneContainers(ctx, cli, root, VerboseLog)
	if err == nil || len(removed) > 0 {
		printPruneResult(os.Stdout, removed)
	}
	return err
}

func printPruneResult(w io.Writer, removed []model.ContainerInfo) {
	if IsJSONOutput() {
		writeJSON(w, map[string]interface{}{"removed": removed})
		return
	}

	if len(removed) == 0 {
		fmt.Fprintln(w, "No leftover containers found.")
		return
	}
	for _, c := range removed {
		fmt.Fprintf(w, "%s %-20s %-10s %s\n", okStyle.Render("removed"), c.ContainerName, c.Formatter, c.Root)
	}
}
