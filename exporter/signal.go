package exporter

import (
	"context"
	"sync/atomic"
)

// Signal is a non-blocking cancellation poll. The loop samples it only at
// its checkpoints.
type Signal interface {
	IsSet() bool
}

// ContextSignal is set once its context is done.
type ContextSignal struct {
	ctx context.Context
}

// NewContextSignal wraps ctx, typically one from signal.NotifyContext.
func NewContextSignal(ctx context.Context) ContextSignal {
	return ContextSignal{ctx: ctx}
}

func (s ContextSignal) IsSet() bool { return s.ctx.Err() != nil }

// FlagSignal is a manually triggered signal. The zero value is unset.
type FlagSignal struct {
	set atomic.Bool
}

// Set fires the signal. It is safe to call from any goroutine.
func (s *FlagSignal) Set() { s.set.Store(true) }

func (s *FlagSignal) IsSet() bool { return s.set.Load() }
