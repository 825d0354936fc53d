package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStoreLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Save(ctx, "sid-1", "user-1", time.Minute))
	assert.True(t, mr.Exists("session:sid-1"))

	userID, err := store.Lookup(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Lookup(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = store.Lookup(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewRedisSessionStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisSessionStore("://nope")
	assert.Error(t, err)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", "user-1", time.Minute))
	userID, err := store.Lookup(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	now = now.Add(time.Minute)
	_, err = store.Lookup(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
