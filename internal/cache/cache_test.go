package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/calculator"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "g1")
	require.ErrorIs(t, err, ErrMiss)

	want := []calculator.Transfer{
		{From: "u2", To: "u1", Amount: decimal.RequireFromString("33.34")},
		{From: "u3", To: "u1", Amount: decimal.RequireFromString("0.01")},
	}
	require.NoError(t, c.Set(ctx, "g1", 0, want))

	got, err := c.Get(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].From, got[i].From)
		assert.Equal(t, want[i].To, got[i].To)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "amount %s", got[i].Amount)
	}

	// other groups are unaffected
	_, err = c.Get(ctx, "g2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_EmptySettlementIsAHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "g1", 0, []calculator.Transfer{}))
	got, err := c.Get(ctx, "g1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "g1", 0, []calculator.Transfer{}))
	assert.True(t, mr.Exists("settleup:settlement:g1"))

	require.NoError(t, c.Invalidate(ctx, "g1"))
	assert.False(t, mr.Exists("settleup:settlement:g1"))

	// invalidating an absent key is fine
	require.NoError(t, c.Invalidate(ctx, "g1"))

	v, err := c.Version(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestRedisCache_StaleSetIsDropped(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	v, err := c.Version(ctx, "g1")
	require.NoError(t, err)
	assert.Zero(t, v)

	// A write lands between reading the version and storing the result.
	require.NoError(t, c.Invalidate(ctx, "g1"))

	err = c.Set(ctx, "g1", v, []calculator.Transfer{})
	require.ErrorIs(t, err, ErrStale)
	assert.False(t, mr.Exists("settleup:settlement:g1"))

	// Reading the fresh version allows caching again.
	v, err = c.Version(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "g1", v, []calculator.Transfer{}))
	_, err = c.Get(ctx, "g1")
	assert.NoError(t, err)

	// Other groups keep their own versions.
	other, err := c.Version(ctx, "g2")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestRedisCache_CorruptVersion(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("settleup:settlement-version:g1", "x"))

	_, err := c.Version(context.Background(), "g1")
	assert.Error(t, err)
	err = c.Set(context.Background(), "g1", 0, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStale)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "g1", 0, []calculator.Transfer{}))
	assert.Equal(t, 30*time.Second, mr.TTL("settleup:settlement:g1"))

	mr.FastForward(31 * time.Second)
	_, err := c.Get(ctx, "g1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("settleup:settlement:g1", "not json"))

	_, err := c.Get(context.Background(), "g1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Dial(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set(context.Background(), "g1", 0, nil))

	_, err = Dial(context.Background(), "::not a url", time.Minute)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c SettlementCache = Noop{}
	ctx := context.Background()

	v, err := c.Version(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "g1", v, []calculator.Transfer{}))
	_, err = c.Get(ctx, "g1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Invalidate(ctx, "g1"))
}
