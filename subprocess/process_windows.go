//go:build windows

package subprocess

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

func (p *Process) handle() (windows.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sys.process == 0 {
		return 0, os.ErrClosed
	}
	return p.sys.process, nil
}

func (p *Process) waitOS() (ExitStatus, error) {
	h, err := p.handle()
	if err != nil {
		return ExitStatus{}, err
	}
	ev, err := windows.WaitForSingleObject(h, windows.INFINITE)
	if err != nil {
		return ExitStatus{}, err
	}
	if ev != windows.WAIT_OBJECT_0 {
		return ExitStatus{}, syscall.EINVAL
	}
	return exitCode(h)
}

func (p *Process) probeOS() (bool, ExitStatus, error) {
	h, err := p.handle()
	if err != nil {
		return false, ExitStatus{}, err
	}
	ev, err := windows.WaitForSingleObject(h, 0)
	if err != nil {
		return false, ExitStatus{}, err
	}
	if ev != windows.WAIT_OBJECT_0 {
		return false, ExitStatus{}, nil
	}
	st, err := exitCode(h)
	if err != nil {
		return false, ExitStatus{}, err
	}
	return true, st, nil
}

// killOS approximates POSIX delivery semantics: signal zero is a liveness
// check and every terminating signal maps to TerminateProcess, with the
// signal number encoded in the exit code the way shells report it.
func (p *Process) killOS(sig syscall.Signal) error {
	h, err := p.handle()
	if err != nil {
		return err
	}
	ev, err := windows.WaitForSingleObject(h, 0)
	if err != nil {
		return err
	}
	if ev == windows.WAIT_OBJECT_0 {
		return os.ErrProcessDone
	}
	if sig == 0 {
		return nil
	}
	return windows.TerminateProcess(h, uint32(128+int(sig)))
}

func (p *Process) resumeOS() bool {
	p.mu.Lock()
	thread := p.sys.thread
	p.sys.thread = 0
	p.mu.Unlock()
	if thread == 0 {
		return false
	}
	_, err := windows.ResumeThread(thread)
	windows.CloseHandle(thread)
	return err == nil
}

func exitCode(h windows.Handle) (ExitStatus, error) {
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return ExitStatus{}, err
	}
	return ExitStatus{Code: int(code)}, nil
}
