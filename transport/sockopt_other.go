// File: transport/sockopt_other.go
//go:build !unix && !windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

func lastSockError(net.Conn) error { return nil }
