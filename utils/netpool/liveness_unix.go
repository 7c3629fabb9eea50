//go:build darwin || linux

package netpool

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// alive polls an idle connection without blocking. an idle connection
// should have nothing to read, being readable means the peer either
// closed it or sent something unsolicited.
func alive(c net.Conn) bool {
	if t, ok := c.(interface{ NetConn() net.Conn }); ok {
		// is *tls.Conn
		c = t.NetConn()
	}
	sc, ok := c.(syscall.Conn)
	if !ok {
		return true
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return false
	}
	ok = true
	if err := raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if n, err := unix.Poll(fds, 0); err == nil && n > 0 &&
			fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ok = false
		}
	}); err != nil {
		return false
	}
	return ok
}
