// File: fake/transport.go
// Package fake provides a scripted api.Transport test double used to drive
// the client state machine deterministically, without a real socket.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"
	"time"

	"github.com/maikeriva/asyncrtos-websocket-client/protocol"
)

// Frame is one scripted inbound frame, or one captured outbound frame.
type Frame struct {
	Opcode  protocol.Opcode
	Payload []byte
}

// Transport is a controllable api.Transport double. Connect, Read and
// SendRaw behavior are driven by the QueueFrame and Set* methods; all are
// safe for concurrent use since the client drives a Transport from
// its own dispatcher goroutine while a test drives these from its own.
type Transport struct {
	mu sync.Mutex

	connectErr error
	readErr    error
	sendErr    error

	pending []Frame

	curOpcode  protocol.Opcode
	curPayload []byte
	curPos     int

	sent      []Frame
	closed    bool
	destroyed bool
}

// New returns an unconnected Transport with no scripted frames.
func New() *Transport {
	return &Transport{curOpcode: protocol.OpcodeNone}
}

// SetConnectErr makes the next Connect call(s) fail with err. Pass nil to
// let Connect succeed again, simulating server recovery for reconnect
// tests.
func (t *Transport) SetConnectErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectErr = err
}

// SetReadErr makes Read fail with err from the next call onward,
// simulating a connection that drops mid-session. Pass nil to clear it.
func (t *Transport) SetReadErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

// SetSendErr makes SendRaw fail with err from the next call onward.
func (t *Transport) SetSendErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// QueueFrame appends a frame to be delivered by future Read calls, in
// order.
func (t *Transport) QueueFrame(opcode protocol.Opcode, payload []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, Frame{Opcode: opcode, Payload: payload})
}

// Sent returns a copy of every frame captured by SendRaw so far.
func (t *Transport) Sent() []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Frame, len(t.sent))
	copy(out, t.sent)
	return out
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Destroyed reports whether Destroy has been called.
func (t *Transport) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

func (t *Transport) Connect(host string, port int, path string, timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectErr
}

func (t *Transport) Read(dst []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.readErr != nil {
		return 0, t.readErr
	}

	if t.curOpcode != protocol.OpcodeNone && t.curPos >= len(t.curPayload) {
		t.curOpcode = protocol.OpcodeNone
		t.curPayload = nil
		t.curPos = 0
	}

	if t.curOpcode == protocol.OpcodeNone {
		if len(t.pending) == 0 {
			return 0, nil
		}
		next := t.pending[0]
		t.pending = t.pending[1:]
		t.curOpcode = next.Opcode
		t.curPayload = next.Payload
		t.curPos = 0
		if len(t.curPayload) == 0 {
			return 0, nil
		}
	}

	if len(dst) == 0 {
		return 0, nil
	}

	remaining := len(t.curPayload) - t.curPos
	n := len(dst)
	if n > remaining {
		n = remaining
	}
	copy(dst[:n], t.curPayload[t.curPos:t.curPos+n])
	t.curPos += n

	// Mirror the real transport: a frame too large for dst is fully
	// drained in this call rather than left to desync future reads.
	if t.curPos < len(t.curPayload) && n == len(dst) {
		t.curPos = len(t.curPayload)
	}

	return n, nil
}

func (t *Transport) SendRaw(opcode protocol.Opcode, fin bool, payload []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return 0, t.sendErr
	}
	cp := append([]byte(nil), payload...)
	t.sent = append(t.sent, Frame{Opcode: opcode, Payload: cp})
	return len(payload), nil
}

func (t *Transport) ReadOpcode() protocol.Opcode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.curOpcode
}

func (t *Transport) ReadPayloadLen() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.curPayload))
}

func (t *Transport) PollConnectionClosed(timeout time.Duration) bool {
	return true
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *Transport) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
}

func (t *Transport) LastErrno() error {
	return nil
}
