package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisGuard(rdb), mr
}

func TestClaimOnlyOnceWithinTTL(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	first, err := g.Claim(ctx, "delivery_delay_O-1_2026-10-17", time.Minute)
	require.NoError(t, err)
	second, err := g.Claim(ctx, "delivery_delay_O-1_2026-10-17", time.Minute)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestClaimExpires(t *testing.T) {
	g, mr := newGuard(t)
	ctx := context.Background()

	ok, err := g.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = g.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseAllowsReclaim(t *testing.T) {
	g, mr := newGuard(t)
	ctx := context.Background()

	_, err := g.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(g.Key("k")))

	require.NoError(t, g.Release(ctx, "k"))
	ok, err := g.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFromURLRejectsGarbage(t *testing.T) {
	_, err := NewRedisGuardFromURL(context.Background(), "::not a url::")
	assert.Error(t, err)
}
