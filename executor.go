package shell

import (
	"fmt"
	"os"
)

// Executor is the Pipeline Executor component (spec.md §4.1). It owns no
// state of its own beyond references to the pieces it coordinates: the
// process-wide Shell, the Reaper that collects exit statuses, and the
// Expander that resolves each argument word just before a stage launches.
type Executor struct {
	shell    *Shell
	reaper   *Reaper
	expander *Expander
}

// NewExecutor wires the three collaborators together.
func NewExecutor(s *Shell, r *Reaper, e *Expander) *Executor {
	return &Executor{shell: s, reaper: r, expander: e}
}

// outFileMode is the permission mode used when a redirection target must
// be created, matching command.cc's own O_CREAT mode for `>`/`>>`/`2>`.
const outFileMode = 0664

// launchResult is what launchStages hands back to execute: every forked
// stage's pid, in order, and a wait channel for each one that isn't part
// of a backgrounded pipeline.
type launchResult struct {
	pids  []int
	waits []<-chan *ProcessState

	// lastStageBuiltin is true when the final stage reached was a
	// built-in rather than a forked process — spec.md §4.1's correctness
	// requirement that last_return_code is 0 in that case, regardless of
	// what any earlier forked stage in the same pipeline exits with.
	lastStageBuiltin bool
}

// Execute runs one parsed command line to completion (or, for a
// backgrounded pipeline, to the point of launch) and then reprints the
// shell prompt, matching the interactive read-eval loop in spec.md §2.
// Sourced lines run through execute directly instead, since spec.md §4.5
// suspends prompting for the file's duration.
func (ex *Executor) Execute(cmd *Command) {
	ex.execute(cmd)
	ex.shell.Prompt()
}

// execute implements spec.md §4.1's algorithm without the trailing
// reprompt, so that source.go (§4.5) can drive it silently.
func (ex *Executor) execute(cmd *Command) {
	stages := cmd.SimpleCommands()
	if cmd.Empty() || cmd.RedirectError {
		cmd.Clear()
		return
	}

	ex.shell.setLastArgument(lastArgumentOf(stages))
	ex.shell.setCommandRunning(true)
	defer func() { ex.shell.setCommandRunning(false) }()

	res, ok := ex.launchStages(cmd, stages)

	if cmd.Background {
		// Every stage that did launch before a later stage failed is
		// already running and registered with the reaper, so the banner
		// covers it the same as the original's childPids.empty() check —
		// gating on ok too would silently run a job the user was never
		// told about (command.cc's own background launch never gates on
		// whether every stage's execvp succeeded).
		if len(res.pids) > 0 {
			last := res.pids[len(res.pids)-1]
			ex.shell.setLastBackgroundPid(last)
			fmt.Printf("[1] %d\n", last)
		}
		cmd.Clear()
		return
	}

	// Stages launched before a later stage's failure aborted the rest of
	// the pipeline are still waited on here rather than abandoned: spec.md
	// §4.1 step 6e only promises they'll be "reaped by SIGCHLD", but
	// folding their exit status into last_return_code the same way the
	// happy path does is what keeps ${?} meaningful afterward.
	var code int
	var collected bool
	for _, w := range res.waits {
		ps := <-w
		if ps == nil {
			continue
		}
		collected = true
		code = ps.ExitCode()
		if code != 0 {
			debug().Debugw("pipeline stage exited non-zero", "err", &ExitError{ProcessState: ps})
		}
	}
	if !ok && !collected {
		// Nothing ever launched (the first stage itself couldn't start) —
		// matches the exit(1) the original's execvp failure path reports
		// from the child that would have run it.
		code = 1
	}
	if ok && res.lastStageBuiltin {
		// A built-in last stage already set last_return_code to 0
		// (dispatchBuiltin); don't let an earlier forked stage's exit
		// code clobber it (spec.md §4.1 correctness requirement).
		cmd.Clear()
		return
	}
	ex.shell.setLastReturnCode(code)
	cmd.Clear()
}

// launchStages opens the pipeline's redirections and pipes, expands each
// stage's arguments, and either dispatches a built-in in-process or forks
// an external program. Every forked pid is registered with the reaper
// (Register, or RegisterBackground for a backgrounded pipeline) the
// instant startProcess returns it — before any further work in this loop
// gives the SIGCHLD handler a chance to reap the child first.
func (ex *Executor) launchStages(cmd *Command, stages []*SimpleCommand) (launchResult, bool) {
	var res launchResult

	firstIn, firstOwned, err := ex.openInitialStdin(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", stages[0].Args[0], err)
		return res, false
	}

	stdin := firstIn
	stdinOwned := firstOwned

	for i, sc := range stages {
		args := make([]string, len(sc.Args))
		for j, w := range sc.Args {
			args[j] = ex.expander.Expand(w)
		}
		if len(args) == 0 {
			// internal/parser never emits a stage with no words, but a
			// Command built some other way could; bail out rather than
			// silently leaking stdin's fd and mis-chaining the stage
			// after it.
			fmt.Fprintln(os.Stderr, "myshell: empty command")
			closeIfOwned(stdin, stdinOwned)
			return res, false
		}

		last := i == len(stages)-1

		var stdout, stderr *os.File
		var stdoutOwned, stderrOwned bool
		var nextIn *os.File
		var nextInOwned bool

		if last {
			stdout, stdoutOwned, err = openRedirect(cmd.OutFile, cmd.AppendOut, os.Stdout)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: can't open %s\n", args[0], cmd.OutFile)
				closeIfOwned(stdin, stdinOwned)
				return res, false
			}
			stderr, stderrOwned, err = openRedirect(cmd.ErrFile, cmd.AppendErr, os.Stderr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: can't open %s\n", args[0], cmd.ErrFile)
				closeIfOwned(stdin, stdinOwned)
				closeIfOwned(stdout, stdoutOwned)
				return res, false
			}
		} else {
			r, w, perr := os.Pipe()
			if perr != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], perr)
				closeIfOwned(stdin, stdinOwned)
				return res, false
			}
			stdout, stdoutOwned = w, true
			nextIn, nextInOwned = r, true
			stderr, stderrOwned = os.Stderr, false
		}

		res.lastStageBuiltin = isBuiltin(args[0])
		if res.lastStageBuiltin {
			dispatchBuiltin(ex, args, stdout, stderr)
		} else {
			path, lerr := lookPath(args[0])
			if lerr != nil {
				// ErrDot (a match only via a relative $PATH entry) is
				// refused the same as a plain not-found, matching the
				// teacher's own Cmd.Start/spawn_other.go: neither lets a
				// relative-PATH match through unchecked.
				fmt.Fprintf(os.Stderr, "%s: command not found\n", args[0])
				closeIfOwned(stdin, stdinOwned)
				closeIfOwned(stdout, stdoutOwned)
				closeIfOwned(stderr, stderrOwned)
				closeIfOwned(nextIn, nextInOwned)
				return res, false
			}
			proc, serr := startProcess(path, args, os.Environ(), "", [3]*os.File{stdin, stdout, stderr})
			if serr != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], serr)
				closeIfOwned(stdin, stdinOwned)
				closeIfOwned(stdout, stdoutOwned)
				closeIfOwned(stderr, stderrOwned)
				closeIfOwned(nextIn, nextInOwned)
				return res, false
			}
			if cmd.Background {
				ex.reaper.RegisterBackground(proc.Pid)
			} else {
				res.waits = append(res.waits, ex.reaper.Register(proc.Pid))
			}
			res.pids = append(res.pids, proc.Pid)
		}

		closeIfOwned(stdin, stdinOwned)
		closeIfOwned(stdout, stdoutOwned)
		closeIfOwned(stderr, stderrOwned)

		stdin, stdinOwned = nextIn, nextInOwned
	}

	return res, true
}

// openInitialStdin opens the pipeline's input redirection, if any;
// otherwise the first stage reads the shell's own stdin directly.
func (ex *Executor) openInitialStdin(cmd *Command) (*os.File, bool, error) {
	if cmd.InFile == "" {
		return os.Stdin, false, nil
	}
	f, err := os.Open(cmd.InFile)
	if err != nil {
		return nil, false, fmt.Errorf("can't open %s", cmd.InFile)
	}
	return f, true, nil
}

// openRedirect opens path for output (truncating or appending per
// spec.md §6) or returns fallback unowned if path is empty.
func openRedirect(path string, appendMode bool, fallback *os.File) (*os.File, bool, error) {
	if path == "" {
		return fallback, false, nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, outFileMode)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// closeIfOwned closes f only if the executor opened it itself — never the
// shell's own stdin/stdout/stderr, and never a file descriptor already
// handed off and closed elsewhere.
func closeIfOwned(f *os.File, owned bool) {
	if owned && f != nil {
		f.Close()
	}
}

// lastArgumentOf returns the final simple command's final argument word,
// captured before expansion — the ${_} special variable (spec.md §4.2).
func lastArgumentOf(stages []*SimpleCommand) string {
	if len(stages) == 0 {
		return ""
	}
	last := stages[len(stages)-1]
	if len(last.Args) == 0 {
		return ""
	}
	return last.Args[len(last.Args)-1]
}
