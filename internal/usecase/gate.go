package usecase

import (
	"context"
	"sync"
)

// Gate is a one-shot start signal: the best-match pass waits on it until the
// fan-out pass has published its first reply. It is an ordering primitive
// only: it protects no data and carries no payload.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

// NewGate creates an unreleased gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Release opens the gate. Idempotent: releasing twice is a no-op.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until the gate is released or ctx is done. Returns immediately
// when the gate is already open.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Released reports whether the gate has been released.
func (g *Gate) Released() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}
