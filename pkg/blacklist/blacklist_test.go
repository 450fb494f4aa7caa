package blacklist

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenBlacklist(client), mr
}

func TestRevoke_StoresHashedKeyWithTTL(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "token-a", time.Now().Add(time.Hour)))

	k := key("token-a")
	assert.True(t, strings.HasPrefix(k, keyPrefix))
	assert.NotContains(t, k, "token-a")
	assert.True(t, mr.Exists(k))

	ttl := mr.TTL(k)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestIsRevoked(t *testing.T) {
	bl, _ := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "token-a", time.Now().Add(time.Hour)))

	revoked, err := bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_ExpiredTokenIsIgnored(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "old", time.Now().Add(-time.Second)))

	assert.False(t, mr.Exists(key("old")))
	assert.Empty(t, mr.Keys())
}

func TestRevoke_EntryExpiresWithToken(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "token-a", time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisUnavailable(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Ping(ctx))

	mr.Close()

	assert.Error(t, bl.Ping(ctx))

	_, err := bl.IsRevoked(ctx, "token-a")
	assert.ErrorContains(t, err, "failed to check blacklist")

	err = bl.Revoke(ctx, "token-a", time.Now().Add(time.Hour))
	assert.ErrorContains(t, err, "failed to revoke token")
}
