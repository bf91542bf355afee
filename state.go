package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
)

// Shell holds the process-wide state described in spec.md §3. It is
// created once at startup and lives for the process's entire lifetime.
// Per spec.md §9's redesign note, this replaces the original C++
// implementation's file-scope statics with fields on a single long-lived
// value that the expander and executor both hold a reference to.
//
// The executor's goroutine and the Reaper's signal-handling goroutine
// both read and write these fields (a backgrounded job's exit can set
// promptNeeded, and SIGINT's handler reads commandRunning, while the
// executor goroutine is concurrently updating the same fields for the
// pipeline it's running), so every access outside of NewShell goes
// through mu.
type Shell struct {
	// shellPath is an absolute or argv[0]-relative path to this
	// executable, used both for ${SHELL} expansion and for re-exec'ing
	// itself as the command-substitution subshell. Set once at
	// construction, never mutated.
	shellPath string

	mu sync.Mutex

	// isTerminal caches whether stdin is a tty. Recomputed by Prompt on
	// every call (spec.md §6: "writes myshell> to stdout and flushes iff
	// stdin is a tty"), but also readable on its own for §4.5's
	// source-file save/restore.
	isTerminal bool

	// commandRunning is true from just before a pipeline's first stage is
	// dispatched until all of its foreground children are reaped. SIGINT
	// consults it to decide whether to reprompt (spec §4.4).
	commandRunning bool

	// promptNeeded is set by the SIGCHLD handler when a background child
	// exits and consumed at the next safe point (spec §4.4).
	promptNeeded bool

	// lastBackgroundPid is the pid of the most recently launched
	// background pipeline's last stage.
	lastBackgroundPid int

	// lastReturnCode is the exit status of the most recently completed
	// foreground pipeline's last stage (0 for built-ins).
	lastReturnCode int

	// lastArgument is the final word of the last executed pipeline's
	// last simple command, as it appeared before expansion of the
	// current line.
	lastArgument string
}

// NewShell initializes the process-wide state. argv0 is the path the
// shell was invoked with (os.Args[0]).
func NewShell(argv0 string) *Shell {
	return &Shell{
		shellPath: argv0,
	}
}

// IsTerminal reports whether stdin is a tty.
func (s *Shell) IsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Prompt writes the shell prompt to stdout iff stdin is a tty, per
// spec.md §6. It also refreshes the cached isTerminal flag, matching the
// original implementation's Shell::prompt, which is the only place that
// mutates _isTerminal outside of source-file save/restore.
func (s *Shell) Prompt() {
	tty := s.IsTerminal()
	s.mu.Lock()
	s.isTerminal = tty
	s.mu.Unlock()
	if tty {
		fmt.Print("myshell>")
	}
}

// setCommandRunning and isCommandRunning guard commandRunning, read by
// the Reaper's SIGINT handler on its own goroutine while the executor
// goroutine is setting it.
func (s *Shell) setCommandRunning(v bool) {
	s.mu.Lock()
	s.commandRunning = v
	s.mu.Unlock()
}

func (s *Shell) isCommandRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandRunning
}

// setPromptNeeded and takePromptNeeded guard promptNeeded. takePromptNeeded
// reads and clears it atomically so the SIGCHLD handler's check-then-clear
// can't race a concurrent setter.
func (s *Shell) setPromptNeeded(v bool) {
	s.mu.Lock()
	s.promptNeeded = v
	s.mu.Unlock()
}

func (s *Shell) takePromptNeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.promptNeeded
	s.promptNeeded = false
	return v
}

func (s *Shell) setLastBackgroundPid(pid int) {
	s.mu.Lock()
	s.lastBackgroundPid = pid
	s.mu.Unlock()
}

// LastBackgroundPid returns the pid backing ${!} (spec.md §4.2).
func (s *Shell) LastBackgroundPid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBackgroundPid
}

func (s *Shell) setLastReturnCode(code int) {
	s.mu.Lock()
	s.lastReturnCode = code
	s.mu.Unlock()
}

// LastReturnCode returns the code backing ${?} (spec.md §4.2).
func (s *Shell) LastReturnCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReturnCode
}

func (s *Shell) setLastArgument(arg string) {
	s.mu.Lock()
	s.lastArgument = arg
	s.mu.Unlock()
}

// LastArgument returns the value backing ${_} (spec.md §4.2).
func (s *Shell) LastArgument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastArgument
}

// setIsTerminalCached and isTerminalCached guard the cached flag, used by
// source.go to save/restore it around a sourced file's run (spec.md §4.5).
func (s *Shell) setIsTerminalCached(v bool) {
	s.mu.Lock()
	s.isTerminal = v
	s.mu.Unlock()
}

func (s *Shell) isTerminalCached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTerminal
}

// ShellPath returns the absolute, canonicalized path to this executable,
// falling back to the raw shellPath if canonicalization fails — the
// ${SHELL} expansion rule in spec.md §4.2.
func (s *Shell) ShellPath() string {
	abs, err := filepath.Abs(s.shellPath)
	if err != nil {
		return s.shellPath
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return s.shellPath
	}
	return resolved
}

// rawShellPath is the unresolved path passed to NewShell, used to launch
// the command-substitution subshell (spec.md §4.2's sub-shell protocol
// execs the shell binary, it does not need the canonicalized form).
func (s *Shell) rawShellPath() string {
	return s.shellPath
}
