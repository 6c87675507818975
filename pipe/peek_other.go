//go:build !windows && !linux

package pipe

import "golang.org/x/sys/unix"

const ioctlReadCount = unix.FIONREAD
