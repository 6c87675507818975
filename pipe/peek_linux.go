//go:build linux

package pipe

import "golang.org/x/sys/unix"

// Linux spells the FIONREAD ioctl TIOCINQ; the value (0x541b) is identical.
const ioctlReadCount = unix.TIOCINQ
