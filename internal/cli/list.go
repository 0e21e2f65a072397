package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewListCommand creates the "list" command, which prints the files the
// formatters would receive without running anything.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the files pyfmt would format",
		Long: `List the Python files discovered in the repository: every *.py file under
the configured sources, plus scripts whose first line is a python shebang.

Paths are relative to the repository root, sorted, one per line.

Examples:
  pyfmt list
  pyfmt list --json
  pyfmt list | xargs wc -l`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			printFileList(os.Stdout, s.Root, s.Files)
			return nil
		},
	}
}

// fileListJSON is the JSON output of the list command.
type fileListJSON struct {
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

func printFileList(w io.Writer, root string, files []string) {
	if IsJSONOutput() {
		out := fileListJSON{Root: root, Files: files}
		if out.Files == nil {
			out.Files = []string{}
		}
		writeJSON(w, out)
		return
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, dimStyle.Render("No Python files found."))
		return
	}
	for _, f := range files {
		fmt.Fprintln(w, f)
	}
}
