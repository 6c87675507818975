//go:build linux

package subprocess

import "golang.org/x/sys/unix"

// selectOS blocks on poll over one pidfd per live member. A pid that can no
// longer be opened was reaped, which counts as an exited member.
func selectOS(procs []*Process, timeoutMs int) (bool, error) {
	fds := make([]unix.PollFd, 0, len(procs))
	defer func() {
		for _, fd := range fds {
			unix.Close(int(fd.Fd))
		}
	}()

	for _, p := range procs {
		if p.hasExited() {
			return true, nil
		}
		fd, err := unix.PidfdOpen(p.pid, 0)
		if err != nil {
			if err == unix.ESRCH {
				return true, nil
			}
			return false, err
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}

	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
