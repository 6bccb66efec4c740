package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) (StreamDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	dir, err := NewRedisDirectory(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { dir.Close() })
	return dir, mr
}

func TestRedisDirectory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dir, mr := newTestDirectory(t)
	started := time.UnixMilli(1700000000000)

	require.NoError(t, dir.SetLive(ctx, "W1", "client-1", started))
	require.NoError(t, dir.SetViewerCount(ctx, "W1", 3))

	assert.True(t, mr.Exists("screenshare:live_workers"))
	assert.Equal(t, "3", mr.HGet("screenshare:worker:W1", "viewer_count"))

	assert.Equal(t, "client-1", mr.HGet("screenshare:worker:W1", "client_id"))
	assert.Equal(t, "1700000000000", mr.HGet("screenshare:worker:W1", "started_at"))

	live, err := dir.ListLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"W1"}, live)

	require.NoError(t, dir.SetOffline(ctx, "W1"))
	assert.False(t, mr.Exists("screenshare:worker:W1"))

	live, err = dir.ListLive(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestRedisDirectory_CountAfterOfflineIsIgnored(t *testing.T) {
	ctx := context.Background()
	dir, mr := newTestDirectory(t)

	require.NoError(t, dir.SetViewerCount(ctx, "W1", 2))
	assert.False(t, mr.Exists("screenshare:worker:W1"))
}

func TestRedisDirectory_Reset(t *testing.T) {
	ctx := context.Background()
	dir, mr := newTestDirectory(t)

	for _, id := range []string{"W1", "W2"} {
		require.NoError(t, dir.SetLive(ctx, id, "c-"+id, time.Now()))
	}
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, dir.Reset(ctx))
	assert.False(t, mr.Exists("screenshare:live_workers"))
	assert.False(t, mr.Exists("screenshare:worker:W1"))
	assert.False(t, mr.Exists("screenshare:worker:W2"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisDirectory_KeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	dir, err := NewRedisDirectory(RedisConfig{Address: mr.Addr(), KeyPrefix: "staging"})
	require.NoError(t, err)
	defer dir.Close()

	require.NoError(t, dir.SetLive(context.Background(), "W1", "c1", time.Now()))
	assert.True(t, mr.Exists("staging:worker:W1"))
}

func TestNewRedisDirectory_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisDirectory(RedisConfig{Address: addr})
	assert.Error(t, err)
}
