//go:build linux

package subprocess

import (
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// forkExec creates the child. For a suspended spawn the child is started
// under ptrace, which parks it in a trap before the first instruction of
// the target program runs; the trap is then converted into an ordinary
// group-stop and the tracer role dropped, leaving a plain SIGSTOP-stopped
// child that any thread can later resume with SIGCONT.
func forkExec(argv0 string, argv []string, attr *syscall.ProcAttr, suspended bool) (int, error) {
	if !suspended {
		return syscall.ForkExec(argv0, argv, attr)
	}

	// ptrace requests must come from the tracer thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sys := *attr.Sys
	sys.Ptrace = true
	traced := *attr
	traced.Sys = &sys

	pid, err := syscall.ForkExec(argv0, argv, &traced)
	if err != nil {
		return 0, err
	}

	var ws unix.WaitStatus
	for {
		if _, err = unix.Wait4(pid, &ws, 0, nil); err != unix.EINTR {
			break
		}
	}
	if err != nil || !ws.Stopped() {
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, nil, 0, nil)
		if err == nil {
			err = unix.EIO
		}
		return 0, err
	}

	// Queue the stop before detaching: the pending SIGSTOP is delivered the
	// moment the child leaves the trap, ahead of any userspace instruction.
	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		unix.Kill(pid, unix.SIGKILL)
		unix.PtraceDetach(pid)
		unix.Wait4(pid, nil, 0, nil)
		return 0, err
	}
	if err := unix.PtraceDetach(pid); err != nil {
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, nil, 0, nil)
		return 0, err
	}
	return pid, nil
}
