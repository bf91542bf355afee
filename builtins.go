package shell

import (
	"fmt"
	"io"
	"os"
)

// builtinNames lists the dispatchable built-in commands (spec.md §4.3).
// isBuiltin and dispatchBuiltin both consult this single table, mirroring
// how aledsdavies-opal organizes its builtins package as a name-to-handler
// registry rather than a chain of string comparisons. It is filled in init
// rather than by its declaration: builtinSource reaches isBuiltin again
// (through sourceFile and execute), which Go rejects as an initialization
// cycle in a package-level initializer.
var builtinNames map[string]func(*Executor, []string, io.Writer, io.Writer) error

func init() {
	builtinNames = map[string]func(*Executor, []string, io.Writer, io.Writer) error{
		"printenv": builtinPrintenv,
		"setenv":   builtinSetenv,
		"unsetenv": builtinUnsetenv,
		"cd":       builtinCd,
		"source":   builtinSource,
	}
}

// isBuiltin reports whether name dispatches to a built-in rather than an
// external program.
func isBuiltin(name string) bool {
	_, ok := builtinNames[name]
	return ok
}

// dispatchBuiltin runs a built-in in the parent process with stdout/stderr
// already pointed at the stage's redirected destinations (spec.md §4.3).
// Every built-in sets last_return_code to 0 regardless of its own
// internal failure mode — spec.md §4.3's closing note: "this matches
// observed behavior; treat any stricter semantics as a future revision."
func dispatchBuiltin(ex *Executor, args []string, stdout, stderr io.Writer) {
	fn := builtinNames[args[0]]
	if err := fn(ex, args, stdout, stderr); err != nil {
		debug().Debugw("builtin error", "cmd", args[0], "err", err)
	}
	ex.shell.setLastReturnCode(0)
}

// builtinPrintenv writes every environment entry "KEY=VALUE\n" to stdout.
func builtinPrintenv(_ *Executor, _ []string, stdout, _ io.Writer) error {
	for _, kv := range os.Environ() {
		if _, err := fmt.Fprintln(stdout, kv); err != nil {
			return err
		}
	}
	return nil
}

// builtinSetenv implements "setenv NAME VALUE".
func builtinSetenv(_ *Executor, args []string, _, stderr io.Writer) error {
	if len(args) < 3 {
		_, err := io.WriteString(stderr, "setenv: Too few arguments\n")
		return err
	}
	return os.Setenv(args[1], args[2])
}

// builtinUnsetenv implements "unsetenv NAME".
func builtinUnsetenv(_ *Executor, args []string, _, stderr io.Writer) error {
	if len(args) < 2 {
		_, err := io.WriteString(stderr, "unsetenv: Too few arguments\n")
		return err
	}
	return os.Unsetenv(args[1])
}

// builtinCd implements "cd [DIR]".
func builtinCd(_ *Executor, args []string, _, stderr io.Writer) error {
	dir := ""
	if len(args) > 1 {
		dir = args[1]
	}
	if dir == "" {
		dir = os.Getenv("HOME")
		if dir == "" {
			_, err := io.WriteString(stderr, "cd: HOME not set\n")
			return err
		}
	}
	if err := os.Chdir(dir); err != nil {
		_, werr := io.WriteString(stderr, "cd: can't cd to "+dir+"\n")
		if werr != nil {
			return werr
		}
		return nil
	}
	return nil
}

// builtinSource implements "source FILE" (spec.md §4.5).
func builtinSource(ex *Executor, args []string, _, stderr io.Writer) error {
	if len(args) < 2 {
		_, err := io.WriteString(stderr, "source: Too few arguments\n")
		return err
	}
	file, err := os.Open(args[1])
	if err != nil {
		_, werr := io.WriteString(stderr, "source: can't open "+args[1]+"\n")
		if werr != nil {
			return werr
		}
		return nil
	}
	defer file.Close()
	return ex.sourceFile(file)
}
