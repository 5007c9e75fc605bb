// Package limits caps how many live connections one client address may hold
// at a time.
package limits

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxPerIP is the per-address limit used when none is configured.
const DefaultMaxPerIP = 16

// ConnectionLimiter counts open connections per client address. A slot taken
// with Acquire stays taken until Release, so it suits connections that
// outlive the request that opened them.
type ConnectionLimiter struct {
	maxPerIP int

	mu    sync.Mutex
	conns map[string]int

	allowed atomic.Int64
	blocked atomic.Int64
}

// NewConnectionLimiter creates a limiter. A maxPerIP of zero or less
// disables the limit.
func NewConnectionLimiter(maxPerIP int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxPerIP: maxPerIP,
		conns:    make(map[string]int),
	}
}

// Acquire takes a slot for ip and reports whether one was free.
func (cl *ConnectionLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.maxPerIP > 0 && cl.conns[ip] >= cl.maxPerIP {
		cl.blocked.Add(1)
		return false
	}
	cl.conns[ip]++
	cl.allowed.Add(1)
	return true
}

// Release gives back a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	switch n := cl.conns[ip]; {
	case n > 1:
		cl.conns[ip] = n - 1
	case n == 1:
		delete(cl.conns, ip)
	}
}

// Count returns the open connections of ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conns[ip]
}

// Addresses returns how many addresses hold at least one slot.
func (cl *ConnectionLimiter) Addresses() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.conns)
}

// TotalAllowed returns how many Acquire calls succeeded.
func (cl *ConnectionLimiter) TotalAllowed() int64 { return cl.allowed.Load() }

// TotalBlocked returns how many Acquire calls were refused.
func (cl *ConnectionLimiter) TotalBlocked() int64 { return cl.blocked.Load() }
