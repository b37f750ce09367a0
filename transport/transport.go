// File: transport/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// wsTransport implements api.Transport over a TCP or TLS net.Conn, tracking
// one in-progress frame's header across possibly many Read calls so that a
// frame whose payload is larger than the caller's destination buffer is
// still fully drained from the wire before the next header is parsed.

package transport

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/maikeriva/asyncrtos-websocket-client/api"
	"github.com/maikeriva/asyncrtos-websocket-client/pool"
	"github.com/maikeriva/asyncrtos-websocket-client/protocol"
)

// wsTransport is constructed fresh for every connect or retry attempt; it
// is never reused across reconnects.
type wsTransport struct {
	mode      api.Mode
	tlsConfig *tls.Config

	conn net.Conn

	curOpcode     protocol.Opcode
	curPayloadLen int64
	curRemaining  int64
	frameConsumed int64
	masked        bool
	maskKey       [4]byte

	lastErr error
}

// New constructs an unconnected Transport for the given Mode. tlsConfig, if
// non-nil, supplies the base TLS settings (root CAs, client certificates);
// it is cloned and augmented per Mode, never mutated.
func New(mode api.Mode, tlsConfig *tls.Config) api.Transport {
	return &wsTransport{
		mode:      mode,
		tlsConfig: tlsConfig,
		curOpcode: protocol.OpcodeNone,
	}
}

func (t *wsTransport) Connect(host string, port int, path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	d := net.Dialer{Deadline: deadline}
	conn, err := d.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		t.lastErr = err
		return fmt.Errorf("transport: dial: %w", err)
	}

	switch t.mode {
	case api.ModeSecure:
		conn, err = t.tlsHandshake(conn, host, deadline, false)
	case api.ModeSecureTest:
		conn, err = t.tlsHandshake(conn, host, deadline, true)
	case api.ModeInsecure:
		// plain TCP, nothing further to negotiate
	}
	if err != nil {
		t.lastErr = err
		return err
	}

	t.conn = conn
	clientKey, err := protocol.NewClientKey()
	if err != nil {
		t.lastErr = err
		return err
	}

	_ = conn.SetDeadline(deadline)
	req := protocol.UpgradeRequest{Host: host, Path: path, Key: clientKey}
	if err := protocol.WriteUpgradeRequest(conn, req); err != nil {
		t.lastErr = err
		return fmt.Errorf("transport: write upgrade request: %w", err)
	}
	if _, err := protocol.ReadUpgradeResponse(conn, clientKey); err != nil {
		t.lastErr = err
		return fmt.Errorf("transport: read upgrade response: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	t.curOpcode = protocol.OpcodeNone
	t.curPayloadLen = 0
	t.curRemaining = 0
	return nil
}

func (t *wsTransport) tlsHandshake(conn net.Conn, host string, deadline time.Time, skipHostname bool) (net.Conn, error) {
	cfg := &tls.Config{}
	if t.tlsConfig != nil {
		cfg = t.tlsConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	if skipHostname {
		roots := cfg.RootCAs
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = chainOnlyVerifier(roots)
	}

	tlsConn := tls.Client(conn, cfg)
	_ = tlsConn.SetDeadline(deadline)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: tls handshake: %w", err)
	}
	return tlsConn, nil
}

// chainOnlyVerifier verifies the presented certificate chain against roots
// (the system trust store when roots is nil) without checking that any
// certificate's subject matches the dialed host. Used for ModeSecureTest,
// where the server under test legitimately presents a certificate for a
// different name.
func chainOnlyVerifier(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("transport: no certificate presented")
		}
		certs := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("transport: parse peer certificate: %w", err)
			}
			certs[i] = c
		}
		intermediates := x509.NewCertPool()
		for _, c := range certs[1:] {
			intermediates.AddCert(c)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
		})
		return err
	}
}

func (t *wsTransport) Read(dst []byte, timeout time.Duration) (int, error) {
	if t.conn == nil {
		return 0, api.ErrNotConnected
	}
	if len(dst) == 0 {
		return 0, nil
	}

	if t.curRemaining == 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
		h, err := protocol.ReadHeader(t.conn)
		if err != nil {
			if isTimeout(err) {
				t.curOpcode = protocol.OpcodeNone
				t.curPayloadLen = 0
				return 0, nil
			}
			t.lastErr = err
			return 0, err
		}
		t.curOpcode = h.Opcode
		t.curPayloadLen = h.PayloadLen
		t.curRemaining = h.PayloadLen
		t.masked = h.Masked
		t.maskKey = h.MaskKey
		t.frameConsumed = 0
		if t.curRemaining == 0 {
			return 0, nil
		}
	}

	want := int64(len(dst))
	if want > t.curRemaining {
		want = t.curRemaining
	}

	_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := io.ReadFull(t.conn, dst[:want])
	if n > 0 {
		if t.masked {
			protocol.Unmask(dst[:n], t.maskKey, int(t.frameConsumed))
		}
		t.frameConsumed += int64(n)
		t.curRemaining -= int64(n)
	}
	if err != nil {
		if n == 0 && isTimeout(err) {
			return 0, nil
		}
		if isTimeout(err) {
			return n, nil
		}
		t.lastErr = err
		return n, err
	}

	// The frame's payload exceeds what the caller could accept this call;
	// drain the remainder from the wire now so the next Read starts at a
	// clean frame boundary rather than mid-payload.
	if t.curRemaining > 0 {
		discarded, derr := io.CopyN(io.Discard, t.conn, t.curRemaining)
		t.curRemaining -= discarded
		if derr != nil {
			t.lastErr = derr
			return n, derr
		}
	}

	return n, nil
}

func (t *wsTransport) SendRaw(opcode protocol.Opcode, fin bool, payload []byte, timeout time.Duration) (int, error) {
	if t.conn == nil {
		return 0, api.ErrNotConnected
	}

	var maskKey [4]byte
	if _, err := rand.Read(maskKey[:]); err != nil {
		return 0, fmt.Errorf("transport: generate mask key: %w", err)
	}

	hdr := pool.HeaderScratchPool.Get()
	defer pool.HeaderScratchPool.Put(hdr)
	n := protocol.WriteHeader(hdr, fin, opcode, len(payload), true, maskKey)

	_ = t.conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := t.conn.Write(hdr[:n]); err != nil {
		t.lastErr = err
		return 0, fmt.Errorf("transport: write header: %w", err)
	}
	if len(payload) == 0 {
		return 0, nil
	}

	protocol.Unmask(payload, maskKey, 0)
	_, werr := t.conn.Write(payload)
	protocol.Unmask(payload, maskKey, 0)
	if werr != nil {
		t.lastErr = werr
		return 0, fmt.Errorf("transport: write payload: %w", werr)
	}
	return len(payload), nil
}

func (t *wsTransport) ReadOpcode() protocol.Opcode { return t.curOpcode }
func (t *wsTransport) ReadPayloadLen() int64       { return t.curPayloadLen }

func (t *wsTransport) PollConnectionClosed(timeout time.Duration) bool {
	if t.conn == nil {
		return true
	}
	_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
	var probe [1]byte
	_, err := t.conn.Read(probe[:])
	return errors.Is(err, io.EOF)
}

func (t *wsTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *wsTransport) Destroy() {
	t.conn = nil
}

func (t *wsTransport) LastErrno() error {
	if t.conn == nil {
		return t.lastErr
	}
	return lastSockError(t.conn)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func rawTCPConn(conn net.Conn) (*net.TCPConn, bool) {
	if tc, ok := conn.(*tls.Conn); ok {
		conn = tc.NetConn()
	}
	tcpConn, ok := conn.(*net.TCPConn)
	return tcpConn, ok
}
