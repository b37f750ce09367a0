// File: client/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client implements the DISCONNECTED/CONNECTING/CONNECTED/RECONNECTING
// state machine: every public method enqueues a command onto the
// dispatcher and returns a Future immediately, so callers never run a
// handler themselves. Exactly one handler, poll tick or retry tick ever
// executes at a time.

package client

import (
	"fmt"

	"github.com/maikeriva/asyncrtos-websocket-client/api"
	"github.com/maikeriva/asyncrtos-websocket-client/internal/concurrency"
	"github.com/maikeriva/asyncrtos-websocket-client/protocol"
	"github.com/maikeriva/asyncrtos-websocket-client/transport"
)

// Option configures a Client at Alloc time.
type Option func(*Client)

// WithLogger overrides the client's Logger, which defaults to discarding
// everything.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransportFactory overrides how the client constructs a Transport for
// each connection attempt. Tests use this to inject a scripted fake.
func WithTransportFactory(f func() api.Transport) Option {
	return func(c *Client) {
		if f != nil {
			c.transportFactory = f
		}
	}
}

// Client is one WebSocket connection's state machine, buffer and timers.
// It is not safe for concurrent use by its own exported methods' callers
// beyond what the returned Futures already serialize: every command is
// itself safe to call from any goroutine, but Free must not race a handler.
type Client struct {
	cfg    Config
	logger Logger

	transportFactory func() api.Transport
	transport        api.Transport

	disp *concurrency.Dispatcher

	buf []byte

	state               State
	connectionAttempt   uint32
	reconnectionAttempt uint32
	episodeStarted      bool
	connectFuture       *Future[error]
}

// Alloc validates cfg, constructs a Client and starts its dispatcher. It
// either returns a fully-usable Client or a non-nil error; no resources are
// retained on failure.
func Alloc(cfg Config, opts ...Option) (*Client, error) {
	resolved, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    resolved,
		logger: nopLogger{},
		buf:    make([]byte, resolved.BufferSize),
		state:  StateDisconnected,
	}
	c.transportFactory = func() api.Transport {
		return transport.New(resolved.Mode, nil)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.disp = concurrency.NewDispatcher(c.pollTick, c.retryTick)
	c.disp.Start()
	return c, nil
}

// Free tears down the dispatcher and any live transport. It must not be
// called while a command Future returned by this Client is unresolved.
func (c *Client) Free() {
	c.disp.Stop()
	if c.transport != nil {
		c.transport.Close()
		c.transport.Destroy()
		c.transport = nil
	}
}

// Connect initiates (or re-initiates) a connection attempt.
func (c *Client) Connect() *Future[error] {
	fut := NewFuture[error]()
	c.disp.Submit(func() { c.handleConnect(fut) })
	return fut
}

// Disconnect tears the connection down unconditionally. Idempotent.
func (c *Client) Disconnect() *Future[struct{}] {
	fut := NewFuture[struct{}]()
	c.disp.Submit(func() { c.handleDisconnect(fut) })
	return fut
}

// SendText sends data as one TEXT+FIN frame. data must remain valid until
// the returned Future resolves; the client may transiently mutate it
// in-place (masking) but restores it before resolving.
func (c *Client) SendText(data []byte) *Future[error] {
	fut := NewFuture[error]()
	c.disp.Submit(func() { c.handleSend(protocol.OpcodeText, data, fut) })
	return fut
}

// SendBinary sends data as one BINARY+FIN frame, under the same lifetime
// contract as SendText.
func (c *Client) SendBinary(data []byte) *Future[error] {
	fut := NewFuture[error]()
	c.disp.Submit(func() { c.handleSend(protocol.OpcodeBinary, data, fut) })
	return fut
}

// State reports the client's current lifecycle state. Intended for tests
// and diagnostics; callers driving behavior off it race the dispatcher by
// construction and should prefer the Futures and callbacks instead.
func (c *Client) State() State {
	done := make(chan State, 1)
	c.disp.Submit(func() { done <- c.state })
	return <-done
}

// --- command handlers (run only on the dispatcher goroutine) ---

func (c *Client) handleConnect(fut *Future[error]) {
	switch c.state {
	case StateConnected:
		c.connectionAttempt = 0
		c.reconnectionAttempt = 0
		fut.Resolve(nil)

	default: // DISCONNECTED, CONNECTING, RECONNECTING
		c.closeClean()
		c.abortPendingConnect()

		c.connectFuture = fut
		c.connectionAttempt = 0
		c.reconnectionAttempt = 0
		c.episodeStarted = false

		c.transport = c.transportFactory()
		if err := c.transport.Connect(c.cfg.Host, c.cfg.Port, c.cfg.Path, c.cfg.SendTimeout); err != nil {
			c.logger.Printf("client: connect attempt failed: %v", err)
			c.handleError()
			return
		}

		c.state = StateConnected
		c.connectFuture = nil
		fut.Resolve(nil)

		c.disp.ArmPoll(c.cfg.PollTimeout)
		c.pollTick()
	}
}

func (c *Client) handleDisconnect(fut *Future[struct{}]) {
	switch c.state {
	case StateDisconnected:
		fut.Resolve(struct{}{})

	default:
		c.closeClean()
		c.abortPendingConnect()
		c.state = StateDisconnected
		c.connectionAttempt = 0
		c.reconnectionAttempt = 0
		c.episodeStarted = false
		fut.Resolve(struct{}{})
	}
}

func (c *Client) handleSend(opcode protocol.Opcode, data []byte, fut *Future[error]) {
	if c.state != StateConnected {
		fut.Resolve(api.ErrNotConnected)
		return
	}
	if _, err := c.transport.SendRaw(opcode, true, data, c.cfg.SendTimeout); err != nil {
		c.logger.Printf("client: send failed: %v", err)
		c.handleError()
		fut.Resolve(err)
		return
	}
	fut.Resolve(nil)
}

// abortPendingConnect resolves a connect Future left over from a prior,
// now-superseded attempt with an error, per the exactly-once resolution
// invariant: no connect Future is ever silently dropped.
func (c *Client) abortPendingConnect() {
	if c.connectFuture == nil {
		return
	}
	fut := c.connectFuture
	c.connectFuture = nil
	fut.Resolve(fmt.Errorf("client: superseded: %w", api.ErrConnectFailed))
}

// closeClean is the idempotent teardown sequence: disarm both timers, and
// if the transport is actually connected, send a CLOSE frame and wait for
// the peer before closing. Skipped entirely when there is no transport, to
// avoid a multi-second close timeout on a socket that was never open.
func (c *Client) closeClean() {
	c.disp.DisarmPoll()
	c.disp.DisarmRetry()
	if c.transport == nil {
		return
	}
	if c.state == StateConnected {
		_, _ = c.transport.SendRaw(protocol.OpcodeClose, true, nil, c.cfg.SendTimeout)
		c.transport.PollConnectionClosed(c.cfg.SendTimeout)
	}
	c.transport.Close()
	c.transport.Destroy()
	c.transport = nil
}

// handleError is the single decision point for every failing operation:
// transport errors from Connect, Read, SendRaw, and protocol violations
// observed by pollTick all funnel here.
func (c *Client) handleError() {
	c.closeClean()

	if c.connectFuture != nil {
		c.connectionAttempt++
		if c.connectionAttempt >= *c.cfg.ConnectionAttempts {
			c.state = StateDisconnected
			fut := c.connectFuture
			c.connectFuture = nil
			fut.Resolve(api.ErrBudgetExhausted)
			return
		}
		c.state = StateConnecting
		c.disp.ArmRetry(c.cfg.RetryInterval)
		return
	}

	// Mid-session loss: RECONNECTING is emitted unconditionally on the
	// first attempt of the episode, before the budget is checked, so a
	// reconnection_attempts=0 configuration still observes the episode
	// starting even though it gives up immediately afterward.
	if !c.episodeStarted {
		c.episodeStarted = true
		c.cfg.OnEvent(api.EventReconnecting)
	}

	if c.reconnectionAttempt >= *c.cfg.ReconnectionAttempts {
		c.state = StateDisconnected
		c.reconnectionAttempt = 0
		c.episodeStarted = false
		c.cfg.OnEvent(api.EventDisconnected)
		return
	}

	c.reconnectionAttempt++
	c.state = StateReconnecting
	c.disp.ArmRetry(c.cfg.RetryInterval)
}

// pollTick is the receive pump: one invocation reads as much of the
// current (or next) frame as the transport will yield within its timeout
// budget, then dispatches once by opcode.
func (c *Client) pollTick() {
	dataLen := 0
	for {
		n, err := c.transport.Read(c.buf[dataLen:], c.cfg.PollTimeout)
		if err != nil {
			c.logger.Printf("client: read failed: %v", err)
			c.handleError()
			return
		}
		dataLen += n
		if n == 0 || dataLen == len(c.buf) || int64(dataLen) >= c.transport.ReadPayloadLen() {
			break
		}
	}

	switch op := c.transport.ReadOpcode(); {
	case op.IsData():
		c.cfg.OnData(c.buf[:dataLen])

	case op == protocol.OpcodePing:
		if _, err := c.transport.SendRaw(protocol.OpcodePong, true, c.buf[:dataLen], c.cfg.SendTimeout); err != nil {
			c.logger.Printf("client: pong reply failed: %v", err)
			c.handleError()
		}

	case op == protocol.OpcodePong:
		// client role: nothing to do with unsolicited pongs.

	case op == protocol.OpcodeClose:
		c.closeClean()
		c.state = StateDisconnected
		c.connectionAttempt = 0
		c.reconnectionAttempt = 0
		c.episodeStarted = false
		c.cfg.OnEvent(api.EventDisconnected)

	case op == protocol.OpcodeNone:
		// nothing arrived this tick.

	default:
		c.logger.Printf("client: unknown opcode %v, failing connection", op)
		c.handleError()
	}
}

// retryTick is the retry loop: one connect attempt with the configured
// host/port/path, armed by handleError and disarmed here on success.
func (c *Client) retryTick() {
	wasReconnect := c.state == StateReconnecting

	c.transport = c.transportFactory()
	if err := c.transport.Connect(c.cfg.Host, c.cfg.Port, c.cfg.Path, c.cfg.SendTimeout); err != nil {
		c.logger.Printf("client: retry connect failed: %v", err)
		c.handleError()
		return
	}

	c.disp.DisarmRetry()
	c.state = StateConnected
	c.connectionAttempt = 0
	c.reconnectionAttempt = 0
	c.episodeStarted = false

	if wasReconnect {
		c.cfg.OnEvent(api.EventReconnected)
	}
	if c.connectFuture != nil {
		fut := c.connectFuture
		c.connectFuture = nil
		fut.Resolve(nil)
	}

	c.disp.ArmPoll(c.cfg.PollTimeout)
	c.pollTick()
}
