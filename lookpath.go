package shell

import (
	"os"
	"path/filepath"
	"strings"
)

// lookPath searches for an executable named file in the directories named
// by the PATH environment variable, the same search execvp performs. If
// file contains a slash, it is tried directly and PATH is not consulted.
func lookPath(file string) (string, error) {
	// If file contains a slash, try it directly.
	if strings.Contains(file, "/") {
		err := findExecutable(file)
		if err == nil {
			return file, nil
		}
		return "", &lookupError{Name: file, Err: err}
	}

	path := os.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			if !filepath.IsAbs(path) {
				if execErr := isExecutable(path); execErr {
					return path, &lookupError{Name: file, Err: ErrDot}
				}
			}
			return path, nil
		}
	}
	return "", &lookupError{Name: file, Err: ErrNotFound}
}

// findExecutable checks if the file at path exists and is executable.
func findExecutable(file string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	m := fi.Mode()
	if m.IsDir() {
		return os.ErrPermission
	}
	if m&0111 != 0 {
		return nil
	}
	return os.ErrPermission
}
