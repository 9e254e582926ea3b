package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateReleaseBeforeWait(t *testing.T) {
	g := NewGate()
	g.Release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))
	assert.True(t, g.Released())
}

func TestGateWaitBlocksUntilRelease(t *testing.T) {
	g := NewGate()
	assert.False(t, g.Released())

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- g.Wait(ctx)
	}()

	g.Release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Release")
	}
}

func TestGateDoubleReleaseIsNoop(t *testing.T) {
	g := NewGate()
	g.Release()
	g.Release()
	assert.True(t, g.Released())
}

func TestGateWaitHonorsContext(t *testing.T) {
	g := NewGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, g.Released())
}
