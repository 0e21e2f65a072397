package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mmr-tortoise/pyfmt/internal/model"
	"github.com/mmr-tortoise/pyfmt/internal/runner"
)

// ContainerWorkdir is where the repository root is bind-mounted.
const ContainerWorkdir = "/src"

// Executor runs each formatter in a fresh container created from Image.
// The repository root (Command.Dir) is bind-mounted read-write at
// ContainerWorkdir, so file paths relative to the root work unchanged.
//
// Setup lines run first under `sh -e`; a failing setup line fails the step
// with its exit status. The container is removed once the step finishes,
// including when the context is cancelled.
type Executor struct {
	Client *Client
	Image  string
	Setup  []string

	// Env is set in the container as KEY=VALUE pairs.
	Env []string

	Stdout io.Writer
	Stderr io.Writer

	// Logf, when set, receives progress messages.
	Logf func(format string, args ...interface{})

	now func() time.Time
}

var _ runner.Executor = (*Executor)(nil)

// NewExecutor creates an Executor streaming container output to the
// process's standard streams.
func NewExecutor(cli *Client, image string, setup []string) *Executor {
	return &Executor{
		Client: cli,
		Image:  image,
		Setup:  setup,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *Executor) logf(format string, args ...interface{}) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}

// Run implements runner.Executor.
func (e *Executor) Run(ctx context.Context, cmd runner.Command) error {
	if cmd.Dir == "" {
		return model.NewCLIError(model.ExitGeneralError, "container backend requires a repository root")
	}

	script, err := BuildScript(e.Setup, cmd)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot quote command for %s", cmd.Name), err)
	}

	cfg, hostCfg := e.containerConfig(cmd, script)

	id, err := e.create(ctx, cfg, hostCfg)
	if err != nil {
		return err
	}
	defer func() {
		// The run context may already be cancelled.
		if rmErr := RemoveContainer(context.WithoutCancel(ctx), e.Client, id); rmErr != nil {
			e.logf("Failed to remove container %s: %v", shortID(id), rmErr)
		}
	}()

	api := e.Client.inner

	// Register the wait before starting so a fast exit is not missed.
	// The wait has its own context so its goroutine ends on every return path.
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	waitCh, waitErrCh := api.ContainerWait(waitCtx, id, container.WaitConditionNextExit)

	if err := api.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container for %s", cmd.Name), err)
	}
	e.logf("Started container %s for %s", shortID(id), cmd.Name)

	logs, err := api.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to attach to container for %s", cmd.Name), err)
	}
	_, copyErr := stdcopy.StdCopy(e.Stdout, e.Stderr, logs)
	logs.Close()
	if copyErr != nil && ctx.Err() == nil {
		e.logf("Output stream for %s ended early: %v", cmd.Name, copyErr)
	}

	select {
	case res := <-waitCh:
		return exitError(cmd.Name, res)
	case err := <-waitErrCh:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s interrupted", cmd.Name), ctxErr)
		}
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed waiting for %s", cmd.Name), err)
	}
}

func (e *Executor) containerConfig(cmd runner.Command, script string) (*container.Config, *container.HostConfig) {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	cfg := &container.Config{
		Image:      e.Image,
		Cmd:        []string{"sh", "-ec", script},
		Env:        e.Env,
		WorkingDir: ContainerWorkdir,
		Labels:     BuildLabels(cmd.Name, cmd.Dir, now()),
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: cmd.Dir,
			Target: ContainerWorkdir,
		}},
	}
	return cfg, hostCfg
}

// create creates the container, pulling the image once if it is missing.
func (e *Executor) create(ctx context.Context, cfg *container.Config, hostCfg *container.HostConfig) (string, error) {
	api := e.Client.inner

	resp, err := api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil && cerrdefs.IsNotFound(err) {
		e.logf("Pulling image %s", cfg.Image)
		if pullErr := e.pull(ctx, cfg.Image); pullErr != nil {
			return "", pullErr
		}
		resp, err = api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	}
	if err != nil {
		return "", model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container from image %q", cfg.Image), err)
	}
	for _, w := range resp.Warnings {
		e.logf("Docker warning: %s", w)
	}
	return resp.ID, nil
}

func (e *Executor) pull(ctx context.Context, ref string) error {
	rc, err := e.Client.inner.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to pull image %q", ref), err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to pull image %q", ref), err)
	}
	return nil
}

// exitError maps a container wait result onto the runner's error contract.
func exitError(name string, res container.WaitResponse) error {
	if res.Error != nil && res.Error.Message != "" {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("%s container failed", name), errors.New(res.Error.Message))
	}
	if res.StatusCode == 0 {
		return nil
	}
	return model.NewCLIError(model.ExitCode(res.StatusCode),
		fmt.Sprintf("%s failed with exit status %d", name, res.StatusCode))
}

// BuildScript renders the shell script run inside the container: the
// setup lines verbatim, then the formatter invocation with every word
// POSIX-quoted. exec replaces the shell so the formatter's exit status
// becomes the container's.
func BuildScript(setup []string, cmd runner.Command) (string, error) {
	words := make([]string, 0, len(cmd.Args)+1)
	for _, w := range append([]string{cmd.Path}, cmd.Args...) {
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			return "", err
		}
		words = append(words, q)
	}

	var b strings.Builder
	for _, line := range setup {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("exec ")
	b.WriteString(strings.Join(words, " "))
	b.WriteByte('\n')
	return b.String(), nil
}
