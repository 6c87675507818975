//go:build !windows

package subprocess

import (
	"os/exec"
	"syscall"
)

// sysHandle carries no extra OS state on POSIX; the pid is the handle.
type sysHandle struct{}

func startProcess(opts *Options, sio *stdio, env []string) (*Process, error) {
	argv0 := opts.Args[0]
	if opts.SearchPath {
		resolved, err := exec.LookPath(argv0)
		if err != nil {
			return nil, spawnErr("resolve executable", err)
		}
		argv0 = resolved
	}

	files := make([]uintptr, 3)
	for i, f := range sio.child {
		files[i] = f.Fd()
	}

	attr := &syscall.ProcAttr{
		Dir:   opts.Dir,
		Env:   env,
		Files: files,
		Sys: &syscall.SysProcAttr{
			// A detached child gets its own session so the parent's
			// process group and controlling terminal no longer own it.
			Setsid: opts.Detached,
		},
	}

	pid, err := forkExec(argv0, opts.Args, attr, opts.Suspended)
	if err != nil {
		return nil, spawnErr("fork/exec "+argv0, err)
	}

	state := StateRunning
	if opts.Suspended {
		state = StateSuspended
	}
	return &Process{pid: pid, state: state, log: opts.Logger}, nil
}

// NativeHandle returns the OS reference used for waiting and signaling; on
// POSIX that is the pid itself.
func (p *Process) NativeHandle() uintptr { return uintptr(p.pid) }

func (p *Process) releaseOS() {}
