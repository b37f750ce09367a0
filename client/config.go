// File: client/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"math"
	"net/http"
	"time"

	"github.com/maikeriva/asyncrtos-websocket-client/api"
)

const (
	defaultPath               = "/"
	defaultPort               = 443
	defaultConnectionBudget   = 3
	defaultReconnectionBudget = math.MaxUint32
	defaultRetryInterval      = 3000 * time.Millisecond
	defaultSendTimeout        = 3000 * time.Millisecond
	defaultPollTimeout        = 100 * time.Millisecond
	defaultBufferSize         = 1024
)

// Config describes one client's configuration. It is immutable once passed
// to Alloc; the resolved copy held by Client is never mutated afterward.
type Config struct {
	Host string
	Port int
	Path string
	Mode api.Mode

	// ConnectionAttempts and ReconnectionAttempts are optional: a nil
	// pointer means "use the documented default", and an explicit 0 is a
	// real, distinct budget (give up after the very first failure; a
	// mid-session failure still emits RECONNECTING once, immediately
	// followed by DISCONNECTED). Use Budget to build one inline, e.g.
	// Budget(0).
	ConnectionAttempts   *uint32
	ReconnectionAttempts *uint32
	RetryInterval        time.Duration
	SendTimeout          time.Duration
	PollTimeout          time.Duration
	BufferSize           int

	SubProtocol string
	UserAgent   string
	Headers     http.Header

	// OnData and OnEvent are the caller's callbacks. Both are required:
	// Alloc rejects a Config missing either.
	OnData  api.DataHandler
	OnEvent api.EventHandler
}

// Budget returns a pointer to n, for use with Config.ConnectionAttempts and
// Config.ReconnectionAttempts where a nil value means "use the default" and
// an explicit 0 must remain distinguishable from "unset".
func Budget(n uint32) *uint32 { return &n }

// resolve validates required fields and substitutes defaults for every
// field left at its zero value, returning a new Config safe to freeze into
// a Client. A Port of 0 is treated as "use default", since 0 is never a
// valid WebSocket port. ConnectionAttempts and ReconnectionAttempts default
// only when left nil; an explicit Budget(0) is honored as-is.
func resolve(cfg Config) (Config, error) {
	if cfg.Host == "" {
		return Config{}, api.ErrInvalidArgument
	}
	if cfg.OnData == nil || cfg.OnEvent == nil {
		return Config{}, api.ErrInvalidArgument
	}

	out := cfg
	if out.Path == "" {
		out.Path = defaultPath
	}
	if out.Port == 0 {
		out.Port = defaultPort
	}
	if out.ConnectionAttempts == nil {
		out.ConnectionAttempts = Budget(defaultConnectionBudget)
	}
	if out.ReconnectionAttempts == nil {
		out.ReconnectionAttempts = Budget(defaultReconnectionBudget)
	}
	if out.RetryInterval == 0 {
		out.RetryInterval = defaultRetryInterval
	}
	if out.SendTimeout == 0 {
		out.SendTimeout = defaultSendTimeout
	}
	if out.PollTimeout == 0 {
		out.PollTimeout = defaultPollTimeout
	}
	if out.BufferSize == 0 {
		out.BufferSize = defaultBufferSize
	}
	return out, nil
}
