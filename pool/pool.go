// File: pool/pool.go
// Package pool provides small generic object pools used to avoid
// allocating scratch buffers on every frame sent.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// SyncPool wraps sync.Pool with a typed, allocation-free Get/Put contract.
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a SyncPool whose zero value is produced by new.
func NewSyncPool[T any](newFn func() T) *SyncPool[T] {
	return &SyncPool[T]{
		pool: &sync.Pool{New: func() any { return newFn() }},
	}
}

// Get returns a pooled value, allocating one via newFn if the pool is empty.
func (p *SyncPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns v to the pool for reuse.
func (p *SyncPool[T]) Put(v T) {
	p.pool.Put(v)
}

// HeaderScratchPool is a pool of frame-header scratch buffers sized to the
// largest possible WebSocket header (14 bytes). Reused by SendRaw on every
// outgoing frame to avoid a per-call allocation.
var HeaderScratchPool = NewSyncPool(func() []byte {
	return make([]byte, 14)
})
