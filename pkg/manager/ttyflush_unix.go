//go:build !windows

package manager

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// flushTTYInput discards unread bytes queued on the controlling terminal
// (stray keypresses, OSC/DSR replies left over from the TUI) so ssh does not
// receive them as typed input. Never fails; no-op without /dev/tty.
func flushTTYInput() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if fd < 0 {
		return
	}

	// tcflush(fd, TCIFLUSH) via ioctl(TCFLSH); 0x540B on Linux.
	const tcflsh = 0x540B
	_, _, _ = unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(tcflsh), uintptr(unix.TCIFLUSH))

	// Replies can land right after the flush; drain briefly without blocking.
	if err := unix.SetNonblock(fd, true); err != nil {
		return
	}
	defer func() { _ = unix.SetNonblock(fd, false) }()

	deadline := time.Now().Add(100 * time.Millisecond)
	buf := make([]byte, 512)
	for time.Now().Before(deadline) {
		n, rerr := unix.Read(fd, buf)
		if n > 0 {
			deadline = time.Now().Add(50 * time.Millisecond)
			continue
		}
		if rerr != nil {
			break
		}
	}
}
