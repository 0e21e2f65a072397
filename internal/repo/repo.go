package repo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Toplevel returns the absolute path of the top-level directory of the git
// working tree containing path. For a linked worktree this is the
// worktree's own root, not the main checkout's.
func Toplevel(ctx context.Context, path string) (string, error) {
	out, err := runGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// FindRoot returns the git toplevel for dir, or dir itself when dir is not
// inside a git working tree or git is not installed.
func FindRoot(ctx context.Context, dir string, logf func(string, ...interface{})) string {
	top, err := Toplevel(ctx, dir)
	if err != nil || top == "" {
		if logf != nil {
			logf("Not inside a git repository, using %s as the root: %v", dir, err)
		}
		return dir
	}
	return top
}

// runGit runs git with -C repoPath and returns its stdout. On failure the
// error includes git's stderr.
func runGit(ctx context.Context, repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	// #nosec G204 -- args are constructed internally
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}
	return stdout.String(), nil
}
