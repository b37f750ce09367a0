// File: transport/sockopt_windows.go
//go:build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"
	"unsafe"

	"golang.org/x/sys/windows"
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
		var errno int32
		optlen := int32(unsafe.Sizeof(errno))
		gerr := windows.Getsockopt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR,
			(*byte)(unsafe.Pointer(&errno)), &optlen)
		if gerr == nil && errno != 0 {
			sockErr = windows.Errno(errno)
		}
	})
	return sockErr
}
