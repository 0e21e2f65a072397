package venv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// Env is an activated virtual environment. A nil *Env is valid and
// means "no virtual environment": it leaves the environment untouched
// and resolves commands through PATH.
type Env struct {
	// Dir is the absolute path of the virtual environment.
	Dir string

	// BinDir is the absolute path of the directory holding executables.
	BinDir string

	fsys   billy.Filesystem
	binRel string
}

// binDirName returns the venv executables directory for the platform.
// virtualenv uses Scripts on Windows and bin everywhere else.
func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// Activate verifies that dir (relative to the root of fsys) contains an
// activation script and returns the corresponding Env.
//
// Returns a CLIError with ExitVenvError if the activation script is missing,
// which mirrors a failing `. env/bin/activate` under `set -e`.
func Activate(fsys billy.Filesystem, dir string) (*Env, error) {
	binRel := fsys.Join(dir, binDirName())
	activate := fsys.Join(binRel, "activate")

	info, err := fsys.Stat(activate)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitVenvError,
			fmt.Sprintf("cannot activate virtual environment %q: %s not found", dir, filepath.ToSlash(activate)), err)
	}
	if info.IsDir() {
		return nil, model.NewCLIError(model.ExitVenvError,
			fmt.Sprintf("cannot activate virtual environment %q: %s is a directory", dir, filepath.ToSlash(activate)))
	}

	root := fsys.Root()
	return &Env{
		Dir:    filepath.Join(root, dir),
		BinDir: filepath.Join(root, binRel),
		fsys:   fsys,
		binRel: binRel,
	}, nil
}

// Environ returns base with the activation applied: VIRTUAL_ENV set,
// the bin directory first on PATH, and PYTHONHOME removed.
func (e *Env) Environ(base []string) []string {
	if e == nil {
		return base
	}

	out := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case envKeyEqual(key, "PATH"):
			path = value
		case envKeyEqual(key, "VIRTUAL_ENV"), envKeyEqual(key, "PYTHONHOME"):
			// Replaced or dropped below.
		default:
			out = append(out, kv)
		}
	}

	if path != "" {
		path = e.BinDir + string(os.PathListSeparator) + path
	} else {
		path = e.BinDir
	}
	out = append(out, "VIRTUAL_ENV="+e.Dir, "PATH="+path)
	return out
}

// Resolve returns the path to run for command. Bare command names found
// in the venv bin directory resolve to their absolute path there; any
// other command is returned unchanged for PATH lookup.
func (e *Env) Resolve(command string) string {
	if e == nil || strings.ContainsAny(command, `/\`) {
		return command
	}

	candidates := []string{command}
	if runtime.GOOS == "windows" {
		candidates = append(candidates, command+".exe")
	}
	for _, name := range candidates {
		info, err := e.fsys.Stat(e.fsys.Join(e.binRel, name))
		if err == nil && !info.IsDir() {
			return filepath.Join(e.BinDir, name)
		}
	}
	return command
}

// envKeyEqual compares environment variable names the way the platform does.
func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
