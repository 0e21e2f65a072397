// Package model defines the domain types for the pyfmt CLI.
//
// These types are passed between the discovery, activation, and runner
// layers. They are transient: a Job lives for a single process invocation.
package model

import (
	"fmt"
	"regexp"
	"time"
)

// Formatter describes one external formatting tool in the pipeline.
//
// The argument vector passed to the tool is built as:
//
//	<Args...> <forwarded flags...> <files...>
//
// which mirrors `isort "$@" $SOURCES` in a shell wrapper.
type Formatter struct {
	// Name identifies the formatter in logs and reports (e.g., "isort").
	Name string `yaml:"name" json:"name"`

	// Command is the executable to run. Defaults to Name when empty.
	// A bare command is looked up in the virtual environment first.
	Command string `yaml:"command,omitempty" json:"command,omitempty"`

	// Args are fixed arguments placed before any forwarded flags.
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// formatterNameRegex allows the characters found in Python tool names
// such as "isort", "black", "ruff-format" or "docformatter".
var formatterNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Executable returns the command to invoke for this formatter.
func (f Formatter) Executable() string {
	if f.Command != "" {
		return f.Command
	}
	return f.Name
}

// Argv builds the full argument list (excluding the executable) for a run
// over files with the given forwarded flags.
func (f Formatter) Argv(forwarded, files []string) []string {
	argv := make([]string, 0, len(f.Args)+len(forwarded)+len(files))
	argv = append(argv, f.Args...)
	argv = append(argv, forwarded...)
	argv = append(argv, files...)
	return argv
}

// Validate checks that the formatter has a usable name.
func (f Formatter) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("formatter name must not be empty")
	}
	if !formatterNameRegex.MatchString(f.Name) {
		return fmt.Errorf("invalid formatter name %q: must start with an alphanumeric character and contain only alphanumerics, '.', '_' or '-'", f.Name)
	}
	return nil
}

// Job is a single formatting run over a discovered set of files.
type Job struct {
	// Root is the absolute path of the repository being formatted.
	// Formatters run with Root as their working directory.
	Root string `json:"root"`

	// Files are the discovered paths, relative to Root, in slash form.
	Files []string `json:"files"`

	// ForwardedArgs are caller-supplied flags passed verbatim to every formatter.
	ForwardedArgs []string `json:"forwardedArgs,omitempty"`

	// Formatters run in order. The first failure stops the pipeline.
	Formatters []Formatter `json:"formatters"`
}

// StepStatus is the outcome of a single formatter in a pipeline run.
type StepStatus string

const (
	// StepSucceeded means the formatter exited with status 0.
	StepSucceeded StepStatus = "succeeded"

	// StepFailed means the formatter exited non-zero or could not start.
	StepFailed StepStatus = "failed"

	// StepSkipped means an earlier step failed, so this one never ran.
	StepSkipped StepStatus = "skipped"

	// StepPlanned means the step was printed in dry-run mode but not executed.
	StepPlanned StepStatus = "planned"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// StepResult records how one formatter fared.
type StepResult struct {
	Formatter string        `json:"formatter"`
	Command   []string      `json:"command,omitempty"`
	Status    StepStatus    `json:"status"`
	ExitCode  int           `json:"exitCode"`
	Duration  time.Duration `json:"duration"`
}

// Report summarises a pipeline run.
type Report struct {
	Root  string       `json:"root"`
	Files []string     `json:"files"`
	Steps []StepResult `json:"steps"`
}

// Failed returns the first failed step, or nil when every step succeeded.
func (r *Report) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StepFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// ContainerInfo describes a container started by the container backend.
// It is reconstructed from Docker labels; nothing is stored elsewhere.
type ContainerInfo struct {
	ContainerID   string    `json:"containerId"`
	ContainerName string    `json:"containerName"`
	Formatter     string    `json:"formatter"`
	Root          string    `json:"root"`
	State         string    `json:"state"`
	StartedAt     time.Time `json:"startedAt"`
}

// ExitCode defines the CLI's own exit codes. A formatter's non-zero exit
// status is passed through unchanged and may overlap with these values.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file could not be
	// read, parsed, or validated.
	ExitConfigError ExitCode = 2

	// ExitVenvError indicates the virtual environment could not be activated.
	ExitVenvError ExitCode = 3

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 4

	// ExitCommandNotExecutable matches the shell's status for a command
	// that exists but cannot be executed (e.g., missing execute bit).
	ExitCommandNotExecutable ExitCode = 126

	// ExitCommandNotFound matches the shell's status for a missing executable.
	ExitCommandNotFound ExitCode = 127

	// ExitSignalBase is added to the signal number when a formatter is
	// killed by a signal, as the shell reports it (SIGKILL gives 137).
	ExitSignalBase ExitCode = 128
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
