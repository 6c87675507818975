//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package subprocess

import "time"

// selectOS has no native multi-object wait on this platform and falls back
// to a coarse non-reaping probe loop.
func selectOS(procs []*Process, timeoutMs int) (bool, error) {
	const step = 20 * time.Millisecond
	deadline := time.Time{}
	if timeoutMs >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	for {
		for _, p := range procs {
			if p.hasExited() || !p.IsRunning() {
				return true, nil
			}
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(step)
	}
}
