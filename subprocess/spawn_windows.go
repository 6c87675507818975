//go:build windows

package subprocess

import (
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sysHandle carries the Windows process handle and, until Resume, the
// primary thread handle of a suspended child.
type sysHandle struct {
	process windows.Handle
	thread  windows.Handle
}

func startProcess(opts *Options, sio *stdio, env []string) (*Process, error) {
	argv0 := opts.Args[0]
	if opts.SearchPath {
		resolved, err := exec.LookPath(argv0)
		if err != nil {
			return nil, spawnErr("resolve executable", err)
		}
		argv0 = resolved
	}

	appName, err := windows.UTF16PtrFromString(argv0)
	if err != nil {
		return nil, spawnErr("encode executable path", err)
	}
	cmdLine, err := windows.UTF16PtrFromString(windows.ComposeCommandLine(opts.Args))
	if err != nil {
		return nil, spawnErr("encode command line", err)
	}
	var dir *uint16
	if opts.Dir != "" {
		if dir, err = windows.UTF16PtrFromString(opts.Dir); err != nil {
			return nil, spawnErr("encode working directory", err)
		}
	}
	envBlock := createEnvBlock(env)

	flags := uint32(windows.CREATE_UNICODE_ENVIRONMENT)
	if opts.Suspended {
		flags |= windows.CREATE_SUSPENDED
	}
	if opts.Detached {
		flags |= windows.CREATE_NEW_PROCESS_GROUP
	}
	switch opts.Console {
	case ConsoleNew:
		flags |= windows.CREATE_NEW_CONSOLE
	case ConsoleDisable:
		flags |= windows.CREATE_NO_WINDOW
	case ConsoleDetached:
		flags |= windows.DETACHED_PROCESS
	}

	si := &windows.StartupInfo{Flags: windows.STARTF_USESTDHANDLES}
	si.Cb = uint32(unsafe.Sizeof(*si))
	if opts.HideWindow || opts.Console == ConsoleHide {
		si.Flags |= windows.STARTF_USESHOWWINDOW
		si.ShowWindow = windows.SW_HIDE
	}

	// The handles passed to the child must be inheritable; duplicates are
	// made under the fork lock so unrelated spawns cannot inherit them.
	syscall.ForkLock.Lock()
	defer syscall.ForkLock.Unlock()

	self := windows.CurrentProcess()
	std := [3]windows.Handle{}
	closeStd := func() {
		for _, h := range std {
			if h != 0 {
				windows.CloseHandle(h)
			}
		}
	}
	for i, f := range sio.child {
		err := windows.DuplicateHandle(self, windows.Handle(f.Fd()), self, &std[i], 0, true, windows.DUPLICATE_SAME_ACCESS)
		if err != nil {
			closeStd()
			return nil, spawnErr("duplicate std handle", err)
		}
	}
	si.StdInput = std[0]
	si.StdOutput = std[1]
	si.StdErr = std[2]

	var pi windows.ProcessInformation
	err = windows.CreateProcess(appName, cmdLine, nil, nil, true, flags, envBlock, dir, si, &pi)
	closeStd()
	if err != nil {
		return nil, spawnErr("create process", err)
	}

	state := StateRunning
	sys := sysHandle{process: pi.Process}
	if opts.Suspended {
		state = StateSuspended
		sys.thread = pi.Thread
	} else {
		windows.CloseHandle(pi.Thread)
	}
	return &Process{pid: int(pi.ProcessId), sys: sys, state: state, log: opts.Logger}, nil
}

// createEnvBlock lays the environment out as the double-NUL-terminated
// UTF-16 block CreateProcess expects.
func createEnvBlock(env []string) *uint16 {
	if len(env) == 0 {
		empty := []uint16{0, 0}
		return &empty[0]
	}
	var block []uint16
	for _, kv := range env {
		block = append(block, windows.StringToUTF16(kv)...)
	}
	block = append(block, 0)
	return &block[0]
}

// NativeHandle returns the Windows process handle used for waiting and
// signaling. It is distinct from the process identifier.
func (p *Process) NativeHandle() uintptr { return uintptr(p.sys.process) }

func (p *Process) releaseOS() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sys.thread != 0 {
		windows.CloseHandle(p.sys.thread)
		p.sys.thread = 0
	}
	if p.sys.process != 0 {
		windows.CloseHandle(p.sys.process)
		p.sys.process = 0
	}
}
