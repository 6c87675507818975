package subprocess

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"
)

// State is the lifecycle position of a Process handle.
type State int

const (
	// StateSuspended marks a child created but not yet allowed to run.
	StateSuspended State = iota
	// StateRunning marks a live child.
	StateRunning
	// StateExited marks a child whose exit status has been observed.
	StateExited
	// StateDetached marks a handle released from reap responsibility.
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateDetached:
		return "detached"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ExitStatus reports how a child terminated, preserving the OS distinction
// between a normal exit and a signal death where one exists.
type ExitStatus struct {
	// Code is the exit code for a normal exit.
	Code int
	// Signal is the terminating signal when Signaled is true.
	Signal syscall.Signal
	// Signaled reports a signal death rather than a normal exit.
	Signaled bool
}

// Success reports a normal exit with code zero.
func (s ExitStatus) Success() bool { return !s.Signaled && s.Code == 0 }

func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("signal %d", int(s.Signal))
	}
	return fmt.Sprintf("exit %d", s.Code)
}

// Process is the handle for one spawned child. Stdin, Stdout and Stderr
// hold the parent-side ends of pipes requested via NewPipe; slots bound any
// other way leave them nil.
type Process struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	pid int
	sys sysHandle
	log *slog.Logger

	mu        sync.Mutex
	state     State
	status    ExitStatus
	statusSet bool
}

// ID returns the OS process identifier. It stays valid after exit, until
// the process is reaped; identifiers may then be reused by the OS, so
// handles must not be compared by ID alone once exited or detached.
func (p *Process) ID() int { return p.pid }

// State returns the handle's current lifecycle state without touching the
// OS.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the child terminates and returns its exit status. The
// status is fetched from the OS at most once; any later call returns the
// cached value immediately. Waiting on a detached handle fails.
func (p *Process) Wait() (ExitStatus, error) {
	p.mu.Lock()
	if p.statusSet {
		st := p.status
		p.mu.Unlock()
		return st, nil
	}
	if p.state == StateDetached {
		p.mu.Unlock()
		return ExitStatus{}, ErrDetached
	}
	p.mu.Unlock()

	st, err := p.waitOS()
	if err != nil {
		return ExitStatus{}, fmt.Errorf("subprocess: wait pid %d: %w", p.pid, err)
	}
	p.setExited(st)
	return st, nil
}

// IsRunning probes liveness without blocking and without losing the exit
// status a later Wait needs: if the probe observes termination, the status
// is cached. A suspended child counts as running.
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	if p.statusSet || p.state == StateDetached {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	exited, st, err := p.probeOS()
	if err != nil || !exited {
		return err == nil
	}
	p.setExited(st)
	return false
}

// Kill delivers sig to the child. A nil return means the request was
// delivered, not that the process has died; follow with Wait to observe
// termination. Signal zero performs a pure delivery check.
func (p *Process) Kill(sig syscall.Signal) error {
	if err := p.killOS(sig); err != nil {
		return fmt.Errorf("subprocess: kill pid %d: %w", p.pid, err)
	}
	return nil
}

// Terminate requests a graceful stop using the platform default (SIGTERM
// where signals exist).
func (p *Process) Terminate() error { return p.Kill(syscall.SIGTERM) }

// Resume lets a child created with Suspended run. It reports whether the
// OS accepted the request; false covers both genuine failures and the
// benign race where the child already left the suspended state, so callers
// need not treat it as fatal.
func (p *Process) Resume() bool {
	ok := p.resumeOS()
	if ok {
		p.mu.Lock()
		if p.state == StateSuspended {
			p.state = StateRunning
		}
		p.mu.Unlock()
	}
	return ok
}

// Detach permanently releases the handle from reap responsibility. A final
// non-blocking reap is attempted so an already-exited child is not left a
// zombie; after Detach the handle no longer guarantees Wait will succeed.
func (p *Process) Detach() bool {
	p.release()
	return true
}

// Close releases the handle. If the child is still running and was not
// detached, a best-effort reap is attempted and, failing that, a
// possible-zombie warning is emitted through the configured logger; the
// child itself is left alone, since its lifetime is independent of the
// handle's.
func (p *Process) Close() error {
	if !p.release() {
		p.logger().Warn("subprocess may become a zombie process", "pid", p.pid)
	}
	p.closeParentPipes()
	return nil
}

// release moves the handle to a terminal state, reaping if the child has
// already exited. It reports false when a running child is being abandoned.
func (p *Process) release() bool {
	p.mu.Lock()
	if p.statusSet || p.state == StateDetached {
		p.mu.Unlock()
		p.releaseOS()
		return true
	}
	p.mu.Unlock()

	exited, st, err := p.probeOS()
	clean := err != nil || exited
	if exited {
		p.setExited(st)
	}

	p.mu.Lock()
	if !p.statusSet {
		p.state = StateDetached
	}
	p.mu.Unlock()
	p.releaseOS()
	return clean
}

func (p *Process) closeParentPipes() {
	for _, f := range []*os.File{p.Stdin, p.Stdout, p.Stderr} {
		if f != nil {
			f.Close()
		}
	}
	p.Stdin, p.Stdout, p.Stderr = nil, nil, nil
}

func (p *Process) setExited(st ExitStatus) {
	p.mu.Lock()
	if !p.statusSet {
		p.status = st
		p.statusSet = true
		p.state = StateExited
	}
	p.mu.Unlock()
}

func (p *Process) hasExited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusSet
}

func (p *Process) logger() *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return slog.Default()
}

// Select blocks until at least one member of procs has exited, using the
// platform's native multi-object wait. Members that already exited cause an
// immediate return. Select does not reap: call Wait on the signaled
// handle(s) to retrieve status. An OS-level wait failure (for example a
// closed handle in the set) is returned as an error.
func Select(procs []*Process) error {
	if len(procs) == 0 {
		return ErrEmptySelect
	}
	_, err := selectOS(procs, -1)
	return err
}

// SelectTimeout is Select with an upper bound on blocking. It reports
// whether some member exited before the timeout elapsed.
func SelectTimeout(procs []*Process, timeout time.Duration) (bool, error) {
	if len(procs) == 0 {
		return false, ErrEmptySelect
	}
	ms := int(timeout / time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	return selectOS(procs, ms)
}
