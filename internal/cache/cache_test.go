package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(NewClient(mr.Addr(), "", 0), time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	var got []entry
	assert.False(t, c.GetJSON(ctx, KeyLocations, &got))

	c.SetJSON(ctx, KeyLocations, []entry{{Name: "Airport"}})
	require.True(t, c.GetJSON(ctx, KeyLocations, &got))
	assert.Equal(t, "Airport", got[0].Name)
	assert.Equal(t, time.Minute, mr.TTL(KeyLocations))

	c.Delete(ctx, KeyLocations)
	assert.False(t, c.GetJSON(ctx, KeyLocations, &got))
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.SetJSON(ctx, KeyPopularCars, entry{Name: "x"})
	mr.FastForward(2 * time.Minute)

	var got entry
	assert.False(t, c.GetJSON(ctx, KeyPopularCars, &got))
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(KeyLocations, "{not json"))

	var got []entry
	assert.False(t, c.GetJSON(context.Background(), KeyLocations, &got))
}

func TestCache_SoftFail(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	var got entry
	c.SetJSON(ctx, KeyLocations, entry{Name: "x"})
	assert.False(t, c.GetJSON(ctx, KeyLocations, &got))
	assert.Error(t, c.Ping(ctx))
}

func TestCache_NilIsMiss(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	var got entry

	c.SetJSON(ctx, "k", entry{})
	assert.False(t, c.GetJSON(ctx, "k", &got))
	c.Delete(ctx, "k")
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}
