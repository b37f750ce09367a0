// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"time"

	"github.com/maikeriva/asyncrtos-websocket-client/protocol"
)

// Mode selects the transport's TLS posture.
type Mode int

const (
	// ModeSecure dials TLS and verifies the full certificate chain and
	// hostname against the configured (or system) trust store.
	ModeSecure Mode = iota
	// ModeSecureTest verifies the certificate chain but skips hostname
	// validation, for use against test fixtures presenting a certificate
	// for a different CN than the dial address.
	ModeSecureTest
	// ModeInsecure dials plain TCP with no TLS at all.
	ModeInsecure
)

func (m Mode) String() string {
	switch m {
	case ModeSecure:
		return "SECURE"
	case ModeSecureTest:
		return "SECURE_TEST"
	case ModeInsecure:
		return "INSECURE"
	default:
		return "UNKNOWN"
	}
}

// Transport is the capability surface the client drives: connect, frame-
// level read and write, and connection teardown. One Transport instance
// backs exactly one logical connection and is not reused across reconnects;
// the client constructs a fresh one for every connect or retry attempt.
//
// Every method may block up to the timeout passed to it. None of them are
// safe to call concurrently with one another: the client only ever drives
// a Transport from its single dispatcher goroutine.
type Transport interface {
	// Connect dials host:port (TCP, optionally wrapped in TLS per Mode) and
	// performs the WebSocket opening handshake against path. It blocks up
	// to timeout.
	Connect(host string, port int, path string, timeout time.Duration) error

	// Read copies received payload bytes of the frame currently being read
	// into buf, starting at buf[0] and at most len(buf) of them, returning
	// the number of bytes copied. It
	// returns 0 if timeout elapses with no data available, and a non-nil
	// error only on a genuine transport failure (the connection should be
	// considered dead). ReadOpcode and ReadPayloadLen report metadata about
	// the frame Read is currently delivering.
	Read(buf []byte, timeout time.Duration) (int, error)

	// SendRaw writes one complete frame (header plus payload) with the
	// given opcode and FIN bit. It blocks up to timeout and returns the
	// number of payload bytes written.
	SendRaw(opcode protocol.Opcode, fin bool, payload []byte, timeout time.Duration) (int, error)

	// ReadOpcode reports the opcode of the frame most recently (or
	// currently) being delivered by Read. protocol.OpcodeNone means no
	// frame is in progress.
	ReadOpcode() protocol.Opcode

	// ReadPayloadLen reports the declared payload length of the frame
	// ReadOpcode describes.
	ReadPayloadLen() int64

	// PollConnectionClosed reports whether the peer has closed the
	// connection, waiting up to timeout for evidence either way.
	PollConnectionClosed(timeout time.Duration) bool

	// Close performs an orderly shutdown (best effort) of the underlying
	// connection. Idempotent.
	Close() error

	// Destroy releases any resources Close does not, such as pooled
	// buffers. Called exactly once, after Close.
	Destroy()

	// LastErrno exposes the most recent platform socket error observed by
	// the transport, when the platform can surface one. Returns nil when
	// no error is available. An implementation holding no live connection
	// may return the last error it recorded instead.
	LastErrno() error
}
