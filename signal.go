package shell

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Reaper is the Signal & Reaper component (spec.md §4.4). It installs
// handlers for SIGINT and SIGCHLD at startup and owns the single call
// site for waitpid(-1, WNOHANG): every reap, whether for a foreground
// pipeline stage, a background job, or a command-substitution subshell,
// goes through here. That's a deliberate strengthening over the
// original's two independent waitpid call sites (the execute() loop's
// blocking per-pid wait and the signal handler's WNOHANG loop), which
// race each other — whichever call reaps a child first collects its
// status, leaving the other with nothing. Centralizing the reap avoids
// that race instead of reproducing it: Go's os/signal.Notify channel is
// itself the "self-pipe" the spec's design notes (§9) recommend, so a
// regular goroutine reads it and does all the work a raw signal handler
// would otherwise have to do with only async-signal-safe primitives.
//
// A child can exit and be reaped before its caller ever calls Register:
// the SIGCHLD handler runs on its own goroutine and may win that race,
// especially for a command-substitution subshell, which is typically
// gone well before its stdout pipe has been fully drained. pending holds
// exactly those reaps so a late Register still finds them instead of
// blocking forever; background holds the pids of backgrounded stages so
// an unmatched reap can tell "nobody is waiting on this yet" apart from
// "nobody is ever going to wait on this, print the banner."
type Reaper struct {
	shell *Shell

	mu         sync.Mutex
	waiters    map[int]chan *ProcessState
	background map[int]bool
	pending    map[int]*ProcessState

	sigCh chan os.Signal
}

// NewReaper installs signal handling and starts the reaper goroutine.
func NewReaper(s *Shell) *Reaper {
	r := &Reaper{
		shell:      s,
		waiters:    make(map[int]chan *ProcessState),
		background: make(map[int]bool),
		pending:    make(map[int]*ProcessState),
		sigCh:      make(chan os.Signal, 16),
	}
	signal.Notify(r.sigCh, syscall.SIGINT, syscall.SIGCHLD)
	go r.loop()
	return r
}

// Register must be called as soon as a pid is known — immediately after
// startProcess returns, before any work that could give the SIGCHLD
// handler time to reap the child first. It returns a channel that
// receives the pid's ProcessState once reaped. If the child has already
// been reaped (handleSIGCHLD beat this call and stashed the result in
// pending), the returned channel is already filled.
func (r *Reaper) Register(pid int) <-chan *ProcessState {
	ch := make(chan *ProcessState, 1)
	r.mu.Lock()
	if ps, ok := r.pending[pid]; ok {
		delete(r.pending, pid)
		r.mu.Unlock()
		ch <- ps
		return ch
	}
	r.waiters[pid] = ch
	r.mu.Unlock()
	return ch
}

// RegisterBackground records pid as a backgrounded stage, same race
// window as Register: if it has already been reaped into pending, the
// exit banner fires immediately instead of never.
func (r *Reaper) RegisterBackground(pid int) {
	r.mu.Lock()
	ps, already := r.pending[pid]
	if already {
		delete(r.pending, pid)
	} else {
		r.background[pid] = true
	}
	r.mu.Unlock()

	if already {
		r.announceBackgroundExit(ps)
	}
}

func (r *Reaper) loop() {
	for sig := range r.sigCh {
		switch sig {
		case syscall.SIGINT:
			r.handleSIGINT()
		case syscall.SIGCHLD:
			r.handleSIGCHLD()
		}
	}
}

// handleSIGINT implements spec.md §4.4: if no command is running, clear
// the line and reprompt; if one is running, do nothing — the kernel has
// already delivered SIGINT to the foreground process group directly.
func (r *Reaper) handleSIGINT() {
	if !r.shell.isCommandRunning() {
		fmt.Println()
		r.shell.Prompt()
	}
}

// handleSIGCHLD drains every reapable child. A reap matching a registered
// waiter (a foreground stage or a subshell) is delivered there silently.
// A reap matching a known background pid gets the "[pid] exited." banner.
// Anything else hasn't been classified yet — its Register/RegisterBackground
// call just hasn't run — so it's stashed in pending for that call to pick
// up instead of being guessed at here.
func (r *Reaper) handleSIGCHLD() {
	reapAll(func(ps *ProcessState) {
		r.mu.Lock()
		if ch, ok := r.waiters[ps.pid]; ok {
			delete(r.waiters, ps.pid)
			r.mu.Unlock()
			ch <- ps
			return
		}
		if r.background[ps.pid] {
			delete(r.background, ps.pid)
			r.mu.Unlock()
			r.announceBackgroundExit(ps)
			return
		}
		r.pending[ps.pid] = ps
		r.mu.Unlock()
	})

	if r.shell.takePromptNeeded() {
		r.shell.Prompt()
	}
}

func (r *Reaper) announceBackgroundExit(ps *ProcessState) {
	if r.shell.IsTerminal() {
		fmt.Printf("[%d] exited.\n", ps.pid)
		r.shell.setPromptNeeded(true)
	}
}
