package shell

import (
	"os"
	"testing"
)

// TestStartProcessWait runs a real child process and reaps it through the
// package-level wait4, the helper the reaper's reap loop is built on.
// Styled after the teacher's own TestRun: exercise the real
// syscalls rather than mocking them.
func TestStartProcessWait(t *testing.T) {
	path, err := lookPath("true")
	if err != nil {
		t.Fatalf("lookPath(true) error = %v", err)
	}
	proc, err := startProcess(path, []string{"true"}, os.Environ(), "", [3]*os.File{os.Stdin, os.Stdout, os.Stderr})
	if err != nil {
		t.Fatalf("startProcess() error = %v", err)
	}
	ps, err := wait4(proc.Pid, 0)
	if err != nil {
		t.Fatalf("wait4() error = %v", err)
	}
	if !ps.Exited() {
		t.Errorf("Exited() = false, want true")
	}
	if ps.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", ps.ExitCode())
	}
}

func TestStartProcessExitCode(t *testing.T) {
	path, err := lookPath("false")
	if err != nil {
		t.Fatalf("lookPath(false) error = %v", err)
	}
	proc, err := startProcess(path, []string{"false"}, os.Environ(), "", [3]*os.File{os.Stdin, os.Stdout, os.Stderr})
	if err != nil {
		t.Fatalf("startProcess() error = %v", err)
	}
	ps, err := wait4(proc.Pid, 0)
	if err != nil {
		t.Fatalf("wait4() error = %v", err)
	}
	if ps.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", ps.ExitCode())
	}
}

func TestProcessSignalInvalidPid(t *testing.T) {
	p := &Process{Pid: 0}
	if err := p.Signal(os.Interrupt); err == nil {
		t.Error("Signal() on pid 0 error = nil, want non-nil")
	}
}
