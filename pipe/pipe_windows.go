//go:build windows

package pipe

import (
	"os"

	"golang.org/x/sys/windows"
)

func open() (*Pipe, error) {
	var r, w windows.Handle
	// nil security attributes: handles are not inheritable.
	if err := windows.CreatePipe(&r, &w, nil, 0); err != nil {
		return nil, err
	}
	return &Pipe{
		R: os.NewFile(uintptr(r), "|0"),
		W: os.NewFile(uintptr(w), "|1"),
	}, nil
}

func dup(f *os.File) (*os.File, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var (
		out    windows.Handle
		dupErr error
	)
	if err := sc.Control(func(h uintptr) {
		cur := windows.CurrentProcess()
		dupErr = windows.DuplicateHandle(cur, windows.Handle(h), cur, &out, 0, false, windows.DUPLICATE_SAME_ACCESS)
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, dupErr
	}
	return os.NewFile(uintptr(out), f.Name()), nil
}

func peek(f *os.File) (int, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		avail   uint32
		peekErr error
	)
	if err := sc.Control(func(h uintptr) {
		peekErr = windows.PeekNamedPipe(windows.Handle(h), nil, 0, nil, &avail, nil)
	}); err != nil {
		return 0, err
	}
	if peekErr != nil {
		// A writer that has gone away with nothing buffered reads as
		// end-of-stream, not an error.
		if peekErr == windows.ERROR_BROKEN_PIPE {
			return 0, nil
		}
		return 0, peekErr
	}
	return int(avail), nil
}
