package cli

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/mmr-tortoise/pyfmt/internal/config"
	"github.com/mmr-tortoise/pyfmt/internal/discover"
	"github.com/mmr-tortoise/pyfmt/internal/model"
	"github.com/mmr-tortoise/pyfmt/internal/repo"
)

// session is the state every subcommand starts from: the resolved
// repository root, its configuration, and the discovered files.
type session struct {
	Root   string
	Config *config.Config
	FS     billy.Filesystem
	Files  []string
}

// resolveRoot returns the absolute repository root. An explicit --root is
// used as given; otherwise the git toplevel of the working directory is
// used, so pyfmt behaves the same from any subdirectory.
func resolveRoot(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		dir = repo.FindRoot(ctx, wd, VerboseLog)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to resolve root "+dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", model.WrapCLIError(model.ExitGeneralError, "root is not a directory: "+abs, err)
	}
	return abs, nil
}

// loadConfig loads --config when given, otherwise the first config file
// found in root, otherwise the defaults.
func loadConfig(root string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Find(root)
	}
	if path != "" {
		VerboseLog("Using config file %s", path)
	}
	return config.Load(path)
}

// openSession resolves the root, loads the configuration, and runs discovery.
func openSession(ctx context.Context) (*session, error) {
	root, err := resolveRoot(ctx, rootDir)
	if err != nil {
		return nil, err
	}
	VerboseLog("Repository root: %s", root)

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}

	var shebang *regexp.Regexp
	if len(cfg.ScriptDirs) > 0 {
		shebang, err = cfg.ShebangRegexp()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "invalid shebang pattern", err)
		}
	}

	fsys := osfs.New(root)
	files, err := discover.Discover(fsys, discover.Options{
		Sources:    cfg.Sources,
		ScriptDirs: cfg.ScriptDirs,
		Shebang:    shebang,
		Logf:       VerboseLog,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to discover files", err)
	}
	VerboseLog("Discovered %d file(s)", len(files))

	return &session{Root: root, Config: cfg, FS: fsys, Files: files}, nil
}
