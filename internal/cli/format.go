package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pyfmt/internal/devcontainer"
	"github.com/mmr-tortoise/pyfmt/internal/docker"
	"github.com/mmr-tortoise/pyfmt/internal/model"
	"github.com/mmr-tortoise/pyfmt/internal/runner"
)

// checkArgs are placed before the caller's flags by the check command.
// isort and black both accept them.
var checkArgs = []string{"--check", "--diff"}

// formatFlags holds the flag values shared by format and check.
type formatFlags struct {
	dryRun bool
	docker bool
}

func (f *formatFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the formatter commands without running them")
	cmd.Flags().BoolVar(&f.docker, "docker", false, "Run the formatters in a container instead of the local virtualenv")
	cmd.SetFlagErrorFunc(formatterFlagError)
}

// formatterFlagError points at "--" when an unknown flag was most likely
// meant for the formatters, as in "pyfmt format --check".
func formatterFlagError(cmd *cobra.Command, err error) error {
	if !strings.HasPrefix(err.Error(), "unknown flag") && !strings.HasPrefix(err.Error(), "unknown shorthand flag") {
		return err
	}
	return model.WrapCLIError(model.ExitGeneralError,
		fmt.Sprintf(`formatter flags must follow "--" (e.g. %s -- --diff)`, cmd.CommandPath()), err)
}

// NewFormatCommand creates the "format" command.
func NewFormatCommand() *cobra.Command {
	flags := &formatFlags{}

	cmd := &cobra.Command{
		Use:   "format [-- formatter flags...]",
		Short: "Format the repository with isort and black",
		Long: `Discover the repository's Python files, activate its virtualenv and run
every configured formatter (isort, then black) over them in place.

Flags for the formatters must come after "--"; anything before it is
parsed by pyfmt, so "pyfmt format --check" is rejected as an unknown flag.

Examples:
  pyfmt format
  pyfmt format -- --diff
  pyfmt format --docker
  pyfmt format --dry-run --json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd.Context(), flags, forwardedArgs(false, args))
		},
	}
	flags.register(cmd)
	return cmd
}

// NewCheckCommand creates the "check" command, which runs the pipeline in
// report-only mode. Any formatter that would change a file exits non-zero.
func NewCheckCommand() *cobra.Command {
	flags := &formatFlags{}

	cmd := &cobra.Command{
		Use:   "check [-- formatter flags...]",
		Short: "Report files isort or black would change, without modifying them",
		Long: `Run every configured formatter with --check --diff. The first formatter
that would change a file stops the run, and its exit status becomes
pyfmt's.

Extra formatter flags must come after "--", e.g. "pyfmt check -- --quiet".

Examples:
  pyfmt check
  pyfmt check -- --quiet`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd.Context(), flags, forwardedArgs(true, args))
		},
	}
	flags.register(cmd)
	return cmd
}

// forwardedArgs returns the flags passed to every formatter.
func forwardedArgs(check bool, args []string) []string {
	forwarded := make([]string, 0, len(checkArgs)+len(args))
	if check {
		forwarded = append(forwarded, checkArgs...)
	}
	return append(forwarded, args...)
}

func runFormat(ctx context.Context, flags *formatFlags, forwarded []string) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	job := model.Job{
		Root:          s.Root,
		Files:         s.Files,
		ForwardedArgs: forwarded,
		Formatters:    s.Config.Formatters,
	}

	// Formatter output must not interleave with the JSON report.
	var stdout io.Writer = os.Stdout
	if IsJSONOutput() {
		stdout = os.Stderr
	}

	pipeline := &runner.Pipeline{
		FS:     s.FS,
		Venv:   s.Config.Venv,
		DryRun: flags.dryRun,
		Out:    stdout,
		Logf:   VerboseLog,
	}
	if IsJSONOutput() && flags.dryRun {
		// The report already lists every planned command.
		pipeline.Out = io.Discard
	}

	useDocker := flags.docker || s.Config.Docker.Enabled
	switch {
	case useDocker:
		// The container brings its own interpreter; the host venv is not used.
		pipeline.Venv = ""
		if !flags.dryRun {
			cli, err := docker.NewClient()
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			if err := cli.Ping(ctx); err != nil {
				return err
			}
			VerboseLog("Connected to Docker daemon")

			exec, err := containerExecutor(cli, s)
			if err != nil {
				return err
			}
			exec.Stdout = stdout
			exec.Logf = VerboseLog
			pipeline.Executor = exec
		}
	default:
		exec := runner.NewExecExecutor()
		exec.Stdout = stdout
		pipeline.Executor = exec
	}

	report, runErr := pipeline.Run(ctx, job)
	printReport(os.Stdout, report, flags.dryRun)
	return runErr
}

// containerExecutor builds the container backend. A devcontainer.json in
// the root supplies the image when the config names none, and its
// containerEnv is passed through.
func containerExecutor(cli *docker.Client, s *session) (*docker.Executor, error) {
	dc, err := devcontainer.Lookup(s.Root)
	if err != nil {
		return nil, err
	}
	if dc != nil && dc.BuildsImage() {
		VerboseLog("devcontainer.json builds its own image, not using it")
	}

	image := s.Config.DockerImage(dc.UsableImage())
	VerboseLog("Using image %s", image)

	exec := docker.NewExecutor(cli, image, s.Config.Docker.Setup)
	exec.Env = dc.Env()
	return exec, nil
}

// printReport writes the run summary in the format selected by --json.
// Text summaries are omitted for dry runs, whose commands are the output.
func printReport(w io.Writer, report *model.Report, dryRun bool) {
	if IsJSONOutput() {
		writeJSON(w, report)
		return
	}
	if dryRun {
		return
	}
	writeReportText(w, report)
}
