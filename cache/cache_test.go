package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(maxEntries int, ttl time.Duration) (*Cache, *clock) {
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newCache(maxEntries, ttl)
	c.now = clk.now
	return c, clk
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set(&Run{ID: "r1", CSV: []byte("Title\n")})
	got, ok := c.Get("r1")
	require.True(t, ok)
	assert.Equal(t, []byte("Title\n"), got.CSV)
}

func TestCache_Expiry(t *testing.T) {
	c, clk := newTestCache(10, time.Hour)
	c.Set(&Run{ID: "r1"})

	clk.t = clk.t.Add(59 * time.Minute)
	_, ok := c.Get("r1")
	assert.True(t, ok)

	clk.t = clk.t.Add(2 * time.Minute)
	_, ok = c.Get("r1")
	assert.False(t, ok)

	c.purgeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c, clk := newTestCache(2, time.Hour)

	c.Set(&Run{ID: "first"})
	clk.t = clk.t.Add(time.Second)
	c.Set(&Run{ID: "second"})
	clk.t = clk.t.Add(time.Second)
	c.Set(&Run{ID: "third"})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set(&Run{ID: "a"})
	c.Set(&Run{ID: "b"})
	c.Set(&Run{ID: "b", CSV: []byte("x")})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.True(t, ok)
}
