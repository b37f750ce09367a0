// File: transport/sockopt_unix.go
//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket-level error retrieval has no stdlib accessor; this file reaches
// into the raw file descriptor the way the reference transport's Linux
// implementation does for TCP_NODELAY, but for SO_ERROR instead.

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

func lastSockError(conn net.Conn) error {
	tcpConn, ok := rawTCPConn(conn)
	if !ok {
		return nil
	}
	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return nil
	}
	var sockErr error
	_ = raw.Control(func(fd uintptr) {
		errno, gerr := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr == nil && errno != 0 {
			sockErr = unix.Errno(errno)
		}
	})
	return sockErr
}
