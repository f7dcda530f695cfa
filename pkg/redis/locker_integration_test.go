//go:build integration

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/redis"
)

func TestLocker(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("set TEST_REDIS_URL to run integration tests")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := redis.NewLocker(client, "test:"+uuid.NewString()+":")

	unlock, ok, err := locker.TryLock(ctx, "rebalance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "rebalance", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, unlock(ctx))

	unlock, ok, err = locker.TryLock(ctx, "rebalance", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)
	other, ok, err := locker.TryLock(ctx, "rebalance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lock is free")

	// Releasing the stale lock must not drop the new holder.
	require.NoError(t, unlock(ctx))
	_, ok, err = locker.TryLock(ctx, "rebalance", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, other(ctx))
}
