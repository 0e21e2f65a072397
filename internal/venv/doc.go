// Package venv activates a Python virtual environment for child processes.
//
// Sourcing bin/activate in a shell only mutates that shell's environment:
// it exports VIRTUAL_ENV, prepends the venv's bin directory to PATH and
// unsets PYTHONHOME. Env reproduces those effects for os/exec without
// running a shell, and resolves formatter executables inside the venv.
package venv
