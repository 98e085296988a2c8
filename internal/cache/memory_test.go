package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/playbook/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemoryCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_SetGet(t *testing.T) {
	c, _ := newTestMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)

	_, found, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	clock.Advance(999 * time.Millisecond)
	_, found, _ := c.Get(ctx, "k")
	assert.True(t, found)

	clock.Advance(time.Millisecond)
	_, found, _ = c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCache_Delete(t *testing.T) {
	c, _ := newTestMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "never-set"))
	_, found, _ := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCache_SetNX(t *testing.T) {
	c, clock := newTestMemoryCache()
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(time.Minute)
	ok, err = c.SetNX(ctx, "lock", []byte("3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_IncrWithExpiry(t *testing.T) {
	c, clock := newTestMemoryCache()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.IncrWithExpiry(ctx, "rl", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	clock.Advance(time.Hour)
	n, err := c.IncrWithExpiry(ctx, "rl", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryCache_WritesSweepExpiredKeys(t *testing.T) {
	c, clock := newTestMemoryCache()
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		key := "ratelimit:client-" + strconv.Itoa(i)
		_, err := c.IncrWithExpiry(ctx, key, time.Hour)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "session:"+strconv.Itoa(i), []byte("{}"), 24*time.Hour))
	}
	require.NoError(t, c.Set(ctx, "pinned", []byte("v"), 0))
	assert.Len(t, c.entries, 1001)

	clock.Advance(48 * time.Hour)
	require.NoError(t, c.Set(ctx, "fresh", []byte("v"), time.Hour))

	assert.Len(t, c.entries, 2, "only the unexpiring key and the new write remain")
}

func TestMemoryCache_SweepIsThrottled(t *testing.T) {
	c, clock := newTestMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	clock.Advance(2 * time.Second)
	require.NoError(t, c.Set(ctx, "other", []byte("v"), 0))
	assert.Len(t, c.entries, 2, "second write falls inside the sweep interval")

	clock.Advance(sweepInterval)
	require.NoError(t, c.Set(ctx, "other", []byte("v"), 0))
	assert.Len(t, c.entries, 1)
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c, _ := newTestMemoryCache()
	ctx := context.Background()

	src := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", src, 0))
	src[0] = 'X'

	val, _, _ := c.Get(ctx, "k")
	val[1] = 'Y'

	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestSession_RoundtripAndMiss(t *testing.T) {
	c, _ := newTestMemoryCache()
	ctx := context.Background()

	s := models.Session{ID: "sess-1", Email: "a@b.test", LandingURL: "https://partner.test"}
	require.NoError(t, PutSession(ctx, c, s))

	got, found, err := LoadSession(ctx, c, "sess-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s, got)

	_, found, err = LoadSession(ctx, c, "sess-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSession_CorruptEntry(t *testing.T) {
	c, _ := newTestMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, SessionKey("bad"), []byte("{"), 0))

	_, _, err := LoadSession(ctx, c, "bad")
	assert.Error(t, err)
}
