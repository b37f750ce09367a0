package protocol_test

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/maikeriva/asyncrtos-websocket-client/protocol"
)

func TestAcceptKeyKnownVector(t *testing.T) {
	// The canonical RFC 6455 example key/accept pair.
	const key = "dGhlIHNhbXBsZSBub25jZQ=="
	const want = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got := protocol.AcceptKey(key); got != want {
		t.Fatalf("AcceptKey(%q) = %q, want %q", key, got, want)
	}
}

func TestWriteUpgradeRequestIncludesRequiredHeaders(t *testing.T) {
	var buf bytes.Buffer
	err := protocol.WriteUpgradeRequest(&buf, protocol.UpgradeRequest{
		Host: "example.com",
		Path: "/ws",
		Key:  "abc123",
	})
	if err != nil {
		t.Fatalf("WriteUpgradeRequest: %v", err)
	}
	req := buf.String()
	for _, want := range []string{
		"GET /ws HTTP/1.1\r\n",
		"Host: example.com\r\n",
		"Upgrade: websocket\r\n",
		"Sec-WebSocket-Key: abc123\r\n",
		"Sec-WebSocket-Version: 13\r\n",
	} {
		if !strings.Contains(req, want) {
			t.Fatalf("request missing %q; got:\n%s", want, req)
		}
	}
}

func TestReadUpgradeResponseAcceptsValidHandshake(t *testing.T) {
	key, err := protocol.NewClientKey()
	if err != nil {
		t.Fatalf("NewClientKey: %v", err)
	}
	resp := fmt.Sprintf("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n", protocol.AcceptKey(key))

	hdr, err := protocol.ReadUpgradeResponse(bufio.NewReader(strings.NewReader(resp)), key)
	if err != nil {
		t.Fatalf("ReadUpgradeResponse: %v", err)
	}
	if hdr.Get("Upgrade") != "websocket" {
		t.Fatalf("Upgrade header = %q", hdr.Get("Upgrade"))
	}
}

func TestReadUpgradeResponseRejectsWrongAccept(t *testing.T) {
	key, _ := protocol.NewClientKey()
	resp := "HTTP/1.1 101 Switching Protocols\r\nSec-WebSocket-Accept: bogus==\r\n\r\n"
	if _, err := protocol.ReadUpgradeResponse(strings.NewReader(resp), key); err == nil {
		t.Fatal("expected an error for a mismatched Sec-WebSocket-Accept")
	}
}

func TestReadUpgradeResponseRejectsNonSwitchingStatus(t *testing.T) {
	key, _ := protocol.NewClientKey()
	resp := "HTTP/1.1 404 Not Found\r\n\r\n"
	if _, err := protocol.ReadUpgradeResponse(strings.NewReader(resp), key); err == nil {
		t.Fatal("expected an error for a non-101 status")
	}
}
