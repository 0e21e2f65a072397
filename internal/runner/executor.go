package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// Command is a single formatter invocation.
type Command struct {
	// Name identifies the formatter in errors (e.g., "isort").
	Name string

	// Path is the executable: an absolute path or a name looked up in PATH.
	Path string

	// Args are passed to the executable, not including Path itself.
	Args []string

	// Dir is the working directory; formatter paths are relative to it.
	Dir string

	// Env is the full child environment. Nil inherits the current process's.
	Env []string
}

// String renders the command line for logs and dry runs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Executor runs commands. Implementations must return a *model.CLIError
// whose Code is the command's exit status when the command exits non-zero.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecExecutor runs commands as local child processes.
// Output is streamed, not captured: formatters report their own results.
type ExecExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecExecutor creates an ExecExecutor writing to the process's
// standard streams.
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts cmd and waits for it.
//
// Exit statuses follow the shell's conventions so that pyfmt exits with
// the code `set -e` would have produced:
//   - a non-zero exit is passed through unchanged
//   - death by signal N reports 128+N (SIGKILL from Ctrl-C or the OOM
//     killer gives 137)
//   - an executable that exists but cannot be run reports 126
//   - a command that cannot be found reports 127
func (e *ExecExecutor) Run(ctx context.Context, cmd Command) error {
	// #nosec G204 -- the executable and arguments come from the user's own config and flags
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	err := c.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code, signaled := exitStatus(exitErr)
		if signaled {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.WrapCLIError(model.ExitCode(code),
					fmt.Sprintf("%s interrupted", cmd.Name), ctxErr)
			}
			return model.WrapCLIError(model.ExitCode(code),
				fmt.Sprintf("%s was killed by a signal (exit status %d)", cmd.Name, code), err)
		}
		return model.WrapCLIError(model.ExitCode(code),
			fmt.Sprintf("%s failed with exit status %d", cmd.Name, code), err)
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return model.WrapCLIError(model.ExitCommandNotExecutable,
			fmt.Sprintf("%s: permission denied (%s)", cmd.Name, cmd.Path), err)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return model.WrapCLIError(model.ExitCommandNotFound,
			fmt.Sprintf("%s: command not found (%s)", cmd.Name, cmd.Path), err)
	}
	return model.WrapCLIError(model.ExitGeneralError,
		fmt.Sprintf("failed to run %s", cmd.Name), err)
}

// exitStatus returns the shell-style status of a finished process and
// whether it was terminated by a signal.
//
// ExitError.ExitCode reports -1 for a signalled process, which loses the
// signal number. The platform WaitStatus still carries it; on Windows
// Signaled is always false and the plain exit code is used.
func exitStatus(exitErr *exec.ExitError) (code int, signaled bool) {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return int(model.ExitSignalBase) + int(ws.Signal()), true
	}
	code = exitErr.ExitCode()
	if code < 0 {
		return int(model.ExitGeneralError), false
	}
	return code, false
}

// ExitCodeOf returns the exit code an error maps to: the CLIError code when
// present, 0 for nil, and ExitGeneralError otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return int(model.ExitSuccess)
	}
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return int(cliErr.Code)
	}
	return int(model.ExitGeneralError)
}
