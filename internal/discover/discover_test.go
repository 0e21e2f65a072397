package discover

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pythonShebang = regexp.MustCompile(`^#!.*python`)

// newRepo builds an in-memory repository from a map of path → content.
func newRepo(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func defaultOptions() Options {
	return Options{
		Sources:    []string{"*.py", "octodns_*", "tests"},
		ScriptDirs: []string{"script"},
		Shebang:    pythonShebang,
	}
}

// TestDiscover_UnionOfSourcesAndScripts checks the full layout of a
// provider repository: top-level modules, package dirs, tests, and
// a mix of python and shell scripts.
func TestDiscover_UnionOfSourcesAndScripts(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"setup.py":                        "from setuptools import setup\n",
		"README.md":                       "# readme\n",
		"octodns_bunny/__init__.py":       "x = 1\n",
		"octodns_bunny/record/a.py":       "y = 2\n",
		"octodns_bunny/data.json":         "{}\n",
		"tests/test_octodns_bunny.py":     "def test(): pass\n",
		"tests/fixtures/zone.yaml":        "---\n",
		"script/format":                   "#!/bin/bash\nset -e\n",
		"script/changelog":                "#!/usr/bin/env python\nprint(1)\n",
		"script/release":                  "#!/usr/bin/env python3\n",
		"script/notes.txt":                "no shebang\n#!/usr/bin/env python\n",
		"script/lib/helper":               "#!/usr/bin/env python\n",
		"env/lib/python3.12/site.py":      "# venv, never formatted\n",
		"docs/conf.py":                    "# not a declared source\n",
	})

	files, err := Discover(fs, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"octodns_bunny/__init__.py",
		"octodns_bunny/record/a.py",
		"script/changelog",
		"script/release",
		"setup.py",
		"tests/test_octodns_bunny.py",
	}, files)
}

func TestDiscover_DeduplicatesOverlappingSources(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"tests/test_a.py": "",
		"tests/test_b.py": "",
	})

	files, err := Discover(fs, Options{Sources: []string{"tests", "tests", "test*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tests/test_a.py", "tests/test_b.py"}, files)
}

func TestDiscover_MissingInputsAreSkipped(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"main.py": "",
	})

	var logged []string
	opts := defaultOptions()
	opts.Logf = func(format string, args ...interface{}) {
		logged = append(logged, format)
	}

	files, err := Discover(fs, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, files)
	// octodns_*, tests and script/ are all absent.
	assert.Len(t, logged, 3)
}

func TestDiscover_EmptyRepository(t *testing.T) {
	files, err := Discover(memfs.New(), defaultOptions())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_ScriptDirsRequireShebang(t *testing.T) {
	fs := newRepo(t, map[string]string{"script/x": "#!/usr/bin/env python\n"})
	_, err := Discover(fs, Options{ScriptDirs: []string{"script"}})
	assert.Error(t, err)
}

func TestDiscover_MatchedNonPythonFileIsIgnored(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"octodns_notes.txt":  "",
		"octodns_pkg/mod.py": "",
	})

	files, err := Discover(fs, Options{Sources: []string{"octodns_*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"octodns_pkg/mod.py"}, files)
}

// newDiskRepo writes files under a temporary directory and returns an osfs
// rooted there, for cases memfs cannot express faithfully.
func newDiskRepo(t *testing.T, files map[string]string) (billy.Filesystem, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on Windows")
	}
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return osfs.New(dir), dir
}

func symlink(t *testing.T, dir, target, name string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.Symlink(filepath.FromSlash(target), p))
}

// TestDiscover_Symlinks checks that links are treated the way find and
// grep treat them: *.py links are listed, script links are read through,
// and linked directories are not descended into.
func TestDiscover_Symlinks(t *testing.T) {
	fs, dir := newDiskRepo(t, map[string]string{
		"tests/test_a.py":   "",
		"real/shared.py":    "",
		"real/tool.py":      "#!/usr/bin/env python3\n",
		"real/deploy.sh":    "#!/bin/sh\n",
		"script/bootstrap":  "#!/usr/bin/env python\n",
		"script/dir/nested": "#!/usr/bin/env python\n",
	})
	symlink(t, dir, "../real/shared.py", "tests/link.py")
	symlink(t, dir, "../real", "tests/vendored")
	symlink(t, dir, "../real/tool.py", "script/tool")
	symlink(t, dir, "../real/deploy.sh", "script/deploy")
	symlink(t, dir, "../real", "script/linked-dir")
	symlink(t, dir, "../real/missing", "script/dangling")

	var logs []string
	files, err := Discover(fs, Options{
		Sources:    []string{"tests"},
		ScriptDirs: []string{"script"},
		Shebang:    pythonShebang,
		Logf:       func(format string, args ...interface{}) { logs = append(logs, format) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"script/bootstrap",
		"script/tool",
		"tests/link.py",
		"tests/test_a.py",
	}, files)
	assert.Equal(t, []string{"Cannot follow script link %q, skipping: %v"}, logs)
}

// TestDiscover_HiddenFiles checks the shell's dot-file rule: wildcards do
// not expand to hidden names, but a recursive walk still finds them.
func TestDiscover_HiddenFiles(t *testing.T) {
	fs, _ := newDiskRepo(t, map[string]string{
		"setup.py":           "",
		".hidden.py":         "",
		".venv/lib/site.py":  "",
		"tests/.conftest.py": "",
		"script/.local":      "#!/usr/bin/env python\n",
	})

	files, err := Discover(fs, Options{
		Sources:    []string{"*.py", "*", "tests"},
		ScriptDirs: []string{"script"},
		Shebang:    pythonShebang,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"setup.py", "tests/.conftest.py"}, files)

	files, err = Discover(fs, Options{Sources: []string{".*.py"}})
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden.py"}, files)
}

func TestHiddenByGlob(t *testing.T) {
	tests := []struct {
		pattern, match string
		want           bool
	}{
		{"*.py", ".hidden.py", true},
		{"*.py", "setup.py", false},
		{".*.py", ".hidden.py", false},
		{"octodns_*/*.py", "octodns_x/.y.py", true},
		{"/*", "/.venv", true},
		{"tests", "tests", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hiddenByGlob(tt.pattern, tt.match), "%s vs %s", tt.pattern, tt.match)
	}
}

func TestHasShebang(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"env python", "#!/usr/bin/env python\n", true},
		{"python3 absolute", "#!/usr/bin/python3 -u\nimport sys\n", true},
		{"bash", "#!/bin/bash\n", false},
		{"python on second line", "#!/bin/sh\n#!/usr/bin/env python\n", false},
		{"no newline", "#!/usr/bin/env python", true},
		{"empty", "", false},
		{"leading space", " #!/usr/bin/env python\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newRepo(t, map[string]string{"script/x": tt.content})
			got, err := HasShebang(fs, "script/x", pythonShebang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasShebang_MissingFile(t *testing.T) {
	_, err := HasShebang(memfs.New(), "script/nope", pythonShebang)
	assert.Error(t, err)
}
