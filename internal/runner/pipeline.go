package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/mmr-tortoise/pyfmt/internal/model"
	"github.com/mmr-tortoise/pyfmt/internal/venv"
)

// Pipeline runs a Job's formatters in order, stopping at the first failure.
type Pipeline struct {
	// Executor starts each formatter.
	Executor Executor

	// FS is the repository filesystem, used to locate the virtualenv.
	FS billy.Filesystem

	// Venv is the virtualenv directory relative to FS. Empty disables
	// activation (e.g. for the container backend).
	Venv string

	// DryRun prints each command to Out instead of executing it.
	DryRun bool

	// Out receives dry-run command lines. Defaults to os.Stdout.
	Out io.Writer

	// Logf, when set, receives progress messages.
	Logf func(format string, args ...interface{})
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// Run activates the virtualenv (when configured) and then runs every
// formatter over job.Files.
//
// If activation fails, no formatter is invoked. If a formatter fails, the
// remaining ones are marked skipped and the formatter's error (carrying its
// exit status) is returned. The report is always non-nil.
func (p *Pipeline) Run(ctx context.Context, job model.Job) (*model.Report, error) {
	report := &model.Report{
		Root:  job.Root,
		Files: job.Files,
		Steps: make([]model.StepResult, 0, len(job.Formatters)),
	}

	var env *venv.Env
	if p.Venv != "" {
		activated, err := venv.Activate(p.FS, p.Venv)
		if err != nil {
			markSkipped(report, job.Formatters)
			return report, err
		}
		env = activated
		p.logf("Activated virtual environment: %s", env.Dir)
	}

	if len(job.Files) == 0 {
		p.logf("No Python files found, nothing to format")
		markSkipped(report, job.Formatters)
		return report, nil
	}

	var childEnv []string
	if env != nil {
		childEnv = env.Environ(os.Environ())
	}

	for i, f := range job.Formatters {
		cmd := Command{
			Name: f.Name,
			Path: env.Resolve(f.Executable()),
			Args: f.Argv(job.ForwardedArgs, job.Files),
			Dir:  job.Root,
			Env:  childEnv,
		}
		step := model.StepResult{
			Formatter: f.Name,
			Command:   append([]string{cmd.Path}, cmd.Args...),
		}

		if p.DryRun {
			fmt.Fprintln(p.out(), cmd.String())
			step.Status = model.StepPlanned
			report.Steps = append(report.Steps, step)
			continue
		}

		if err := ctx.Err(); err != nil {
			markSkipped(report, job.Formatters[i:])
			return report, model.WrapCLIError(model.ExitGeneralError, "interrupted", err)
		}

		p.logf("Running %s on %d file(s)", f.Name, len(job.Files))
		start := time.Now()
		err := p.Executor.Run(ctx, cmd)
		step.Duration = time.Since(start)
		step.ExitCode = ExitCodeOf(err)

		if err != nil {
			step.Status = model.StepFailed
			report.Steps = append(report.Steps, step)
			markSkipped(report, job.Formatters[i+1:])
			return report, err
		}

		step.Status = model.StepSucceeded
		report.Steps = append(report.Steps, step)
	}

	return report, nil
}

func (p *Pipeline) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func markSkipped(report *model.Report, formatters []model.Formatter) {
	for _, f := range formatters {
		report.Steps = append(report.Steps, model.StepResult{
			Formatter: f.Name,
			Status:    model.StepSkipped,
		})
	}
}
