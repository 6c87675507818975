//go:build !windows

package pipe

import (
	"os"

	"golang.org/x/sys/unix"
)

func open() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &Pipe{
		R: os.NewFile(uintptr(fds[0]), "|0"),
		W: os.NewFile(uintptr(fds[1]), "|1"),
	}, nil
}

func dup(f *os.File) (*os.File, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var (
		dupFd  int
		dupErr error
	)
	if err := sc.Control(func(fd uintptr) {
		// F_DUPFD_CLOEXEC keeps the duplicate out of children that do not
		// explicitly receive it.
		dupFd, dupErr = unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, dupErr
	}
	return os.NewFile(uintptr(dupFd), f.Name()), nil
}

func peek(f *os.File) (int, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		n       int
		peekErr error
	)
	if err := sc.Control(func(fd uintptr) {
		n, peekErr = unix.IoctlGetInt(int(fd), ioctlReadCount)
	}); err != nil {
		return 0, err
	}
	if peekErr != nil {
		return 0, peekErr
	}
	return n, nil
}
