// Package discover computes the list of Python files to format.
//
// Discovery works against a go-billy filesystem rooted at the repository,
// so the same code runs on disk (osfs) and in tests (memfs). Two sources
// are combined:
//   - files named *.py found under the configured source globs
//   - files directly inside the script directories whose first line is a
//     Python shebang
//
// Both follow the shell's view of the tree: wildcards skip dot-files,
// symlinked sources are listed but not followed, and symlinked scripts are
// judged by their target.
//
// The result is de-duplicated and sorted so repeated runs pass the
// formatters an identical argument list.
package discover
