package shell

import (
	"errors"
	"os"
)

// lookupError is returned by lookPath when it fails to classify a file as
// an executable — the Go equivalent of execvp failing its own internal
// $PATH search.
type lookupError struct {
	Name string
	Err  error
}

func (e *lookupError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *lookupError) Unwrap() error {
	return e.Err
}

// ExitError reports an unsuccessful exit by a pipeline stage.
type ExitError struct {
	*ProcessState
}

func (e *ExitError) Error() string {
	return e.ProcessState.String()
}

// ErrNotFound is returned when a $PATH search fails to find an executable.
var ErrNotFound = errors.New("executable file not found in $PATH")

// ErrDot indicates a path lookup resolved to an executable found relative
// to the current directory because "." appeared in $PATH.
var ErrDot = errors.New("cannot run executable found relative to current directory")

// isExecutable reports whether the file at path is a regular, executable
// file.
func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular() && fi.Mode()&0111 != 0
}
