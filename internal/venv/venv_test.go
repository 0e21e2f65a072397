package venv

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// newVenv creates an in-memory repository with a virtualenv at env/
// containing the given executables.
func newVenv(t *testing.T, executables ...string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	bin := filepath.Join("env", binDirName())
	require.NoError(t, util.WriteFile(fs, filepath.Join(bin, "activate"), []byte("# activate\n"), 0o644))
	for _, name := range executables {
		require.NoError(t, util.WriteFile(fs, filepath.Join(bin, name), []byte("#!/bin/sh\n"), 0o755))
	}
	return fs
}

func TestActivate(t *testing.T) {
	fs := newVenv(t)

	env, err := Activate(fs, "env")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.Root(), "env"), env.Dir)
	assert.Equal(t, filepath.Join(fs.Root(), "env", binDirName()), env.BinDir)
}

func TestActivate_Missing(t *testing.T) {
	_, err := Activate(memfs.New(), "env")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitVenvError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "activate")
}

func TestActivate_ActivateIsDirectory(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll(filepath.Join("env", binDirName(), "activate"), 0o755))

	_, err := Activate(fs, "env")
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitVenvError, cliErr.Code)
}

func TestEnviron(t *testing.T) {
	env := &Env{Dir: "/repo/env", BinDir: "/repo/env/bin"}

	got := env.Environ([]string{
		"HOME=/home/dev",
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/opt/python",
		"VIRTUAL_ENV=/old/env",
	})

	assert.Contains(t, got, "HOME=/home/dev")
	assert.Contains(t, got, "VIRTUAL_ENV=/repo/env")
	assert.NotContains(t, got, "VIRTUAL_ENV=/old/env")
	assert.NotContains(t, got, "PYTHONHOME=/opt/python")

	var path string
	for _, kv := range got {
		if len(kv) > 5 && kv[:5] == "PATH=" {
			path = kv[5:]
		}
	}
	assert.Equal(t, "/repo/env/bin"+string(filepath.ListSeparator)+"/usr/bin:/bin", path)
}

func TestEnviron_NoPath(t *testing.T) {
	env := &Env{Dir: "/repo/env", BinDir: "/repo/env/bin"}
	got := env.Environ(nil)
	assert.ElementsMatch(t, []string{"VIRTUAL_ENV=/repo/env", "PATH=/repo/env/bin"}, got)
}

func TestNilEnv(t *testing.T) {
	var env *Env
	base := []string{"PATH=/usr/bin"}
	assert.Equal(t, base, env.Environ(base))
	assert.Equal(t, "black", env.Resolve("black"))
}

func TestResolve(t *testing.T) {
	fs := newVenv(t, "isort")
	env, err := Activate(fs, "env")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(env.BinDir, "isort"), env.Resolve("isort"))
	// Not installed in the venv: left for PATH lookup.
	assert.Equal(t, "black", env.Resolve("black"))
	// Explicit paths are never rewritten.
	assert.Equal(t, "/usr/local/bin/isort", env.Resolve("/usr/local/bin/isort"))
}
