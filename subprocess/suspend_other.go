//go:build !windows && !linux

package subprocess

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// forkExec creates the child. Suspended creation here is best effort: the
// stop signal is sent immediately after creation, so the child may execute
// briefly before it lands. Linux and Windows provide the exact guarantee.
func forkExec(argv0 string, argv []string, attr *syscall.ProcAttr, suspended bool) (int, error) {
	pid, err := syscall.ForkExec(argv0, argv, attr)
	if err != nil {
		return 0, err
	}
	if suspended {
		if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
			unix.Kill(pid, unix.SIGKILL)
			unix.Wait4(pid, nil, 0, nil)
			return 0, err
		}
	}
	return pid, nil
}
