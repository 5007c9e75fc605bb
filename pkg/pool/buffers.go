// Package pool recycles the buffers live views render into.
package pool

import (
	"bytes"
	"sync"
)

// Pool is a typed sync.Pool. Values rejected by keep are dropped on Put.
type Pool[T any] struct {
	p    sync.Pool
	keep func(T) bool
}

// New returns a pool creating values with newFn.
func New[T any](newFn func() T, keep func(T) bool) *Pool[T] {
	return &Pool[T]{
		p:    sync.Pool{New: func() any { return newFn() }},
		keep: keep,
	}
}

func (p *Pool[T]) Get() T { return p.p.Get().(T) }

func (p *Pool[T]) Put(v T) {
	if p.keep != nil && !p.keep(v) {
		return
	}
	p.p.Put(v)
}

// A rendered landing page is about 150KB; anything far beyond that came from
// an unusual render and is left to the collector.
const maxBufferCap = 512 << 10

var buffers = New(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) bool { return b != nil && b.Cap() <= maxBufferCap },
)

// GetBuffer returns an empty buffer.
func GetBuffer() *bytes.Buffer {
	b := buffers.Get()
	b.Reset()
	return b
}

// PutBuffer hands b back for reuse.
func PutBuffer(b *bytes.Buffer) { buffers.Put(b) }
