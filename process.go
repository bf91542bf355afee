package shell

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Process is a running child process started by the pipeline executor or
// by the command-substitution subshell. It wraps a pid rather than an
// *os.Process because every child is reaped by the Reaper's
// waitpid(-1, WNOHANG) loop (signal.go), foreground stages included, and
// os.Process.Wait would race that loop for the same child.
type Process struct {
	Pid int
}

// Signal sends a signal to the process.
func (p *Process) Signal(sig os.Signal) error {
	if p.Pid <= 0 {
		return os.ErrInvalid
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		return os.ErrInvalid
	}
	return unix.Kill(p.Pid, s)
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// ProcessState stores what waitpid reported about an exited process.
type ProcessState struct {
	pid    int
	status unix.WaitStatus
}

// Pid returns the process id of the exited process.
func (p *ProcessState) Pid() int { return p.pid }

// Exited reports whether the program exited on its own, as opposed to
// being killed by a signal.
func (p *ProcessState) Exited() bool { return p.status.Exited() }

// ExitCode returns the exit status, or 1 if the process did not exit
// normally. spec.md §4.1 step 8: "from the last child's status, set
// last_return_code to its exit code (or 1 if not normally exited)".
func (p *ProcessState) ExitCode() int {
	if !p.status.Exited() {
		return 1
	}
	return p.status.ExitStatus()
}

// String renders a human-readable description, used in debug tracing.
func (p *ProcessState) String() string {
	switch {
	case p.status.Exited():
		return fmt.Sprintf("exit status %d", p.status.ExitStatus())
	case p.status.Signaled():
		return "signal: " + p.status.Signal().String()
	default:
		return fmt.Sprintf("unknown status: %v", p.status)
	}
}

// wait4 wraps unix.Wait4, translating the result into a ProcessState.
// pid == -1 with WNOHANG is the SIGCHLD reaper's non-blocking poll
// (spec §4.4). The pipeline executor does not call it: it receives its
// foreground stages' states from the reaper through Reaper.Register.
func wait4(pid int, flags int) (*ProcessState, error) {
	var status unix.WaitStatus
	gotPid, err := unix.Wait4(pid, &status, flags, nil)
	if err != nil {
		return nil, err
	}
	if gotPid == 0 {
		// WNOHANG and nothing was reapable yet.
		return nil, nil
	}
	return &ProcessState{pid: gotPid, status: status}, nil
}

// reapAll drains every reapable child with WNOHANG, calling fn once per
// reaped pid, until none remain. This is the body of the SIGCHLD handler
// (spec §4.4).
func reapAll(fn func(*ProcessState)) {
	for {
		ps, err := wait4(-1, unix.WNOHANG)
		if err != nil || ps == nil {
			return
		}
		fn(ps)
	}
}

// startProcess starts path with argv/env/dir and the three given files
// installed as fd 0/1/2, in their own process group (spec §10.1: each
// pipeline stage gets its own pgid so a signal sent to the group reaches
// every stage). This is the Go-idiomatic replacement for
// fork()+dup2()+execvp(): os.StartProcess installs the file descriptors
// atomically as part of process creation, so there is no window in which
// the child could observe the parent's original fd 0/1/2.
func startProcess(path string, argv []string, env []string, dir string, files [3]*os.File) (*Process, error) {
	attr := &os.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: []*os.File{files[0], files[1], files[2]},
		Sys: &syscall.SysProcAttr{
			Setpgid: true,
		},
	}
	proc, err := os.StartProcess(path, argv, attr)
	if err != nil {
		return nil, err
	}
	return &Process{Pid: proc.Pid}, nil
}
