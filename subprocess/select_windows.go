//go:build windows

package subprocess

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const maxWaitObjects = 64

// selectOS blocks in WaitForMultipleObjects over the live process handles.
// A member whose handle has been closed makes the wait fail, which is
// surfaced as an error rather than masked.
func selectOS(procs []*Process, timeoutMs int) (bool, error) {
	if len(procs) > maxWaitObjects {
		return false, fmt.Errorf("subprocess: select supports at most %d processes, got %d", maxWaitObjects, len(procs))
	}
	handles := make([]windows.Handle, 0, len(procs))
	for _, p := range procs {
		if p.hasExited() {
			return true, nil
		}
		h, err := p.handle()
		if err != nil {
			return false, err
		}
		handles = append(handles, h)
	}

	timeout := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}
	ev, err := windows.WaitForMultipleObjects(handles, false, timeout)
	if err != nil {
		return false, err
	}
	if ev == windows.WAIT_TIMEOUT {
		return false, nil
	}
	if ev >= windows.WAIT_OBJECT_0 && ev < windows.WAIT_OBJECT_0+uint32(len(handles)) {
		return true, nil
	}
	return false, fmt.Errorf("subprocess: wait failed with event %#x", ev)
}
