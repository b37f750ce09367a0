// File: api/errors.go
// Package api defines error sentinels shared by the transport, protocol and
// client layers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "errors"

// Common errors surfaced by the transport adapter and the client state
// machine. Handlers never let these escape the owning goroutine: they are
// folded into a resolved promise (err=1) or an event-handler callback.
var (
	ErrTransportClosed  = errors.New("transport is closed")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOperationTimeout = errors.New("operation timed out")
	ErrNotConnected     = errors.New("client is not connected")
	ErrConnectFailed    = errors.New("connect failed")
	ErrBudgetExhausted  = errors.New("attempt budget exhausted")
	ErrProtocolViolation = errors.New("protocol violation: unknown opcode")
	ErrClientClosed     = errors.New("client is closed")
)
