package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterStartsFullAndDrains(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require := assert.New(t)
	require.NoError(rl.Wait(ctx))
	require.NoError(rl.Wait(ctx))
}

func TestRateLimiterBlocksOnceDrained(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, rl.Wait(context.Background()))
	err := rl.Wait(ctx)
	assert.Error(t, err, "a second Wait before refill should block until ctx deadline")
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(20)
	defer rl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 20; i++ {
		assert.NoError(t, rl.Wait(ctx))
	}

	// the bucket is drained; a refill tick at 20rps (50ms interval) should
	// make another token available well within the context deadline.
	assert.NoError(t, rl.Wait(ctx))
}

func TestRateLimiterWaitRespectsCancellation(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Close()
	assert.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
