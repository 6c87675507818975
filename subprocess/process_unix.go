//go:build !windows

package subprocess

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func (p *Process) waitOS() (ExitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(p.pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return ExitStatus{}, err
		}
		if wpid == p.pid && (ws.Exited() || ws.Signaled()) {
			return statusFromWait(ws), nil
		}
	}
}

func (p *Process) probeOS() (bool, ExitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(p.pid, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, ExitStatus{}, err
		}
		if wpid == 0 {
			return false, ExitStatus{}, nil
		}
		if ws.Exited() || ws.Signaled() {
			return true, statusFromWait(ws), nil
		}
		// Stopped or continued notifications are not termination.
		return false, ExitStatus{}, nil
	}
}

func (p *Process) killOS(sig syscall.Signal) error {
	return unix.Kill(p.pid, sig)
}

func (p *Process) resumeOS() bool {
	return unix.Kill(p.pid, unix.SIGCONT) == nil
}

func statusFromWait(ws unix.WaitStatus) ExitStatus {
	if ws.Signaled() {
		return ExitStatus{Signal: ws.Signal(), Signaled: true}
	}
	return ExitStatus{Code: ws.ExitStatus()}
}
