// Package repo locates the repository pyfmt operates on.
//
// It shells out to the git CLI, so linked worktrees and submodules resolve
// the same way they do for git itself.
package repo
