// File: protocol/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client-side RFC 6455 opening handshake: the request is a plain HTTP/1.1
// GET with the Upgrade headers, built and validated without involving
// net/http's own client (the connection is still mid-upgrade and not yet a
// valid HTTP round trip as far as net/http is concerned).

package protocol

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
)

const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// NewClientKey generates a fresh, random Sec-WebSocket-Key value.
func NewClientKey() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("protocol: generate handshake key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// AcceptKey computes the expected Sec-WebSocket-Accept value for clientKey,
// per RFC 6455 Section 1.3.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	io.WriteString(h, clientKey)
	io.WriteString(h, webSocketGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// UpgradeRequest describes the fields of a client opening handshake beyond
// the bare minimum.
type UpgradeRequest struct {
	Host        string
	Path        string
	Key         string
	SubProtocol string
	UserAgent   string
	Headers     http.Header
}

// WriteUpgradeRequest serializes the HTTP/1.1 upgrade request to w.
func WriteUpgradeRequest(w io.Writer, req UpgradeRequest) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "GET %s HTTP/1.1\r\n", req.Path)
	fmt.Fprintf(bw, "Host: %s\r\n", req.Host)
	fmt.Fprintf(bw, "Upgrade: websocket\r\n")
	fmt.Fprintf(bw, "Connection: Upgrade\r\n")
	fmt.Fprintf(bw, "Sec-WebSocket-Key: %s\r\n", req.Key)
	fmt.Fprintf(bw, "Sec-WebSocket-Version: 13\r\n")
	if req.SubProtocol != "" {
		fmt.Fprintf(bw, "Sec-WebSocket-Protocol: %s\r\n", req.SubProtocol)
	}
	if req.UserAgent != "" {
		fmt.Fprintf(bw, "User-Agent: %s\r\n", req.UserAgent)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			fmt.Fprintf(bw, "%s: %s\r\n", k, v)
		}
	}
	fmt.Fprint(bw, "\r\n")
	return bw.Flush()
}

// ReadUpgradeResponse parses and validates the server's handshake response
// against the key sent in the request. It returns the parsed response
// headers for callers that want to inspect the negotiated subprotocol.
func ReadUpgradeResponse(r io.Reader, sentKey string) (http.Header, error) {
	tp := textproto.NewReader(bufio.NewReader(r))
	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("protocol: read status line: %w", err)
	}
	if len(statusLine) < len("HTTP/1.1 101") || statusLine[9:12] != "101" {
		return nil, fmt.Errorf("protocol: handshake failed: %q", statusLine)
	}
	hdr, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("protocol: read handshake headers: %w", err)
	}
	accept := hdr.Get("Sec-Websocket-Accept")
	if accept == "" || accept != AcceptKey(sentKey) {
		return nil, fmt.Errorf("protocol: Sec-WebSocket-Accept mismatch")
	}
	return http.Header(hdr), nil
}
