package discover

import (
	"fmt"
	"regexp"

	"github.com/bitfield/script"
	"github.com/go-git/go-billy/v5"
)

// HasShebang reports whether the first line of name matches shebang.
// Only the first line is considered, so a later "#!...python" line
// inside a heredoc or docstring does not make a shell script Python.
func HasShebang(fsys billy.Filesystem, name string, shebang *regexp.Regexp) (bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return false, fmt.Errorf("discover: open %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	n, err := script.NewPipe().WithReader(f).First(1).MatchRegexp(shebang).CountLines()
	if err != nil {
		return false, fmt.Errorf("discover: read %q: %w", name, err)
	}
	return n > 0, nil
}
