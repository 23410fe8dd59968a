package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagSignal(t *testing.T) {
	var s FlagSignal
	assert.False(t, s.IsSet())
	s.Set()
	assert.True(t, s.IsSet())
}

func TestContextSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewContextSignal(ctx)

	assert.False(t, s.IsSet())
	cancel()
	assert.True(t, s.IsSet())
}
