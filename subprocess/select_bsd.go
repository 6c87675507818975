//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package subprocess

import "golang.org/x/sys/unix"

// selectOS blocks on a kqueue carrying one EVFILT_PROC/NOTE_EXIT filter per
// live member. Registration against a pid that is already gone reports
// ESRCH, which counts as an exited member.
func selectOS(procs []*Process, timeoutMs int) (bool, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return false, err
	}
	defer unix.Close(kq)

	for _, p := range procs {
		if p.hasExited() {
			return true, nil
		}
		ev := unix.Kevent_t{Fflags: unix.NOTE_EXIT}
		unix.SetKevent(&ev, p.pid, unix.EVFILT_PROC, unix.EV_ADD|unix.EV_ONESHOT)
		if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
			if err == unix.ESRCH {
				return true, nil
			}
			return false, err
		}
	}

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	out := make([]unix.Kevent_t, 1)
	for {
		n, err := unix.Kevent(kq, nil, out, ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
