package discover

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// pythonFilePattern is the `find -name` pattern for Python sources.
const pythonFilePattern = "*.py"

// Options selects what Discover looks for.
type Options struct {
	// Sources are glob patterns relative to the filesystem root.
	Sources []string

	// ScriptDirs are directories scanned (non-recursively) for scripts.
	ScriptDirs []string

	// Shebang is matched against the first line of each script candidate.
	// Required when ScriptDirs is non-empty.
	Shebang *regexp.Regexp

	// Logf, when set, receives progress messages (e.g. skipped globs).
	Logf func(format string, args ...interface{})
}

// Discover returns the union of Python sources and Python scripts found
// in fsys, as slash-separated paths relative to its root, sorted and
// without duplicates.
func Discover(fsys billy.Filesystem, opts Options) ([]string, error) {
	found := make(map[string]struct{})

	for _, pattern := range opts.Sources {
		if err := collectSources(fsys, pattern, found, opts.logf); err != nil {
			return nil, err
		}
	}

	if len(opts.ScriptDirs) > 0 && opts.Shebang == nil {
		return nil, fmt.Errorf("discover: shebang pattern is required when script directories are set")
	}
	for _, dir := range opts.ScriptDirs {
		if err := collectScripts(fsys, dir, opts.Shebang, found, opts.logf); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(found))
	for f := range found {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (o Options) logf(format string, args ...interface{}) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// collectSources expands one glob and adds every *.py file it reaches.
//
// The expansion mirrors what `find <pattern> -name "*.py"` sees after the
// shell has expanded the pattern:
//   - a wildcard does not match a leading dot, so `*.py` skips `.hidden.py`
//     unless the pattern itself spells the dot
//   - directories are walked recursively and hidden entries inside them
//     are kept, since find does not skip them
//   - symlinks are listed by name and never followed, so a link named
//     `x.py` is formatted through its target and a linked directory is
//     not descended into
func collectSources(fsys billy.Filesystem, pattern string, found map[string]struct{}, logf func(string, ...interface{})) error {
	matches, err := util.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("discover: glob %q: %w", pattern, err)
	}

	kept := matches[:0]
	for _, match := range matches {
		if !hiddenByGlob(pattern, match) {
			kept = append(kept, match)
		}
	}
	if len(kept) == 0 {
		logf("No match for source pattern %q, skipping", pattern)
		return nil
	}

	for _, match := range kept {
		info, err := fsys.Lstat(match)
		if err != nil {
			return fmt.Errorf("discover: stat %q: %w", match, err)
		}

		if !info.IsDir() {
			if isPythonFile(info) {
				found[toSlash(match)] = struct{}{}
			}
			continue
		}

		err = util.Walk(fsys, match, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !fi.IsDir() && isPythonFile(fi) {
				found[toSlash(p)] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("discover: walk %q: %w", match, err)
		}
	}
	return nil
}

// collectScripts adds the direct children of dir whose first line matches
// shebang. Subdirectories are not searched, like `script/*`.
//
// grep opens each candidate, so a symlink is judged by the file it points
// to. Dot-files are skipped because `script/*` never expands to them. A
// dangling link is logged and skipped rather than failing the run.
func collectScripts(fsys billy.Filesystem, dir string, shebang *regexp.Regexp, found map[string]struct{}, logf func(string, ...interface{})) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logf("Script directory %q not found, skipping", dir)
			return nil
		}
		return fmt.Errorf("discover: read dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || entry.IsDir() {
			continue
		}
		name := fsys.Join(dir, entry.Name())

		info := entry
		if entry.Mode()&os.ModeSymlink != 0 {
			target, err := fsys.Stat(name)
			if err != nil {
				logf("Cannot follow script link %q, skipping: %v", name, err)
				continue
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			continue
		}

		ok, err := HasShebang(fsys, name, shebang)
		if err != nil {
			return err
		}
		if ok {
			found[toSlash(name)] = struct{}{}
		}
	}
	return nil
}

// isPythonFile reports whether info names a *.py regular file or symlink.
// Devices, sockets and pipes are never handed to a formatter.
func isPythonFile(info os.FileInfo) bool {
	mode := info.Mode()
	if !mode.IsRegular() && mode&os.ModeSymlink == 0 {
		return false
	}
	ok, _ := path.Match(pythonFilePattern, info.Name())
	return ok
}

// hiddenByGlob reports whether match has a dot-prefixed path element that
// was matched by a pattern element not starting with a dot. util.Glob
// follows path.Match, where `*` matches a leading dot; the shell does not.
func hiddenByGlob(pattern, match string) bool {
	pp := strings.Split(toSlash(pattern), "/")
	mp := strings.Split(toSlash(match), "/")
	if len(pp) != len(mp) {
		return false
	}
	for i := range mp {
		if strings.HasPrefix(mp[i], ".") && !strings.HasPrefix(pp[i], ".") {
			return true
		}
	}
	return false
}

// toSlash normalises a billy path so results are stable across platforms
// and free of any leading "./" or "/".
//
// memfs reports paths rooted at "/" while osfs reports them relative to
// its base directory; both are reduced to the same repository-relative
// form that the formatters receive as arguments.
func toSlash(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}
