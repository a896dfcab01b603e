package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(maxEntries int) (*Cache, *fakeClock) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(maxEntries, clk.Now), clk
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "value", 30*time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestCache_Expiry(t *testing.T) {
	c, clk := newTestCache(10)

	c.Set("k", 42, 30*time.Second)

	clk.Advance(29 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok, "entry must be retrievable before the TTL elapses")
	assert.Equal(t, 42, v)

	// At exactly the TTL the entry is gone.
	clk.Advance(1 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must be absent once the TTL elapses")

	// The expired entry was removed, not just hidden.
	assert.Equal(t, 0, c.Len())
}

func TestCache_SetOverwrites(t *testing.T) {
	c, clk := newTestCache(10)

	c.Set("k", "old", 10*time.Second)
	c.Set("k", "new", 60*time.Second)

	clk.Advance(30 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok, "overwrite must reset the expiry")
	assert.Equal(t, "new", v)
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(10)

	c.Set("k", "value", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_EvictsClosestToExpiryWhenFull(t *testing.T) {
	c, _ := newTestCache(2)

	c.Set("short", 1, 10*time.Second)
	c.Set("long", 2, 10*time.Minute)
	c.Set("third", 3, time.Minute)

	_, ok := c.Get("short")
	assert.False(t, ok, "the entry closest to expiry is evicted first")

	_, ok = c.Get("long")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestKey_OrderIndependent(t *testing.T) {
	a := map[string]string{"page": "1", "tier": "tier1", "q": "tower"}
	b := map[string]string{"q": "tower", "page": "1", "tier": "tier1"}

	assert.Equal(t, Key("projects", "fp", a), Key("projects", "fp", b))
}

func TestKey_DistinguishesInputs(t *testing.T) {
	base := map[string]string{"page": "1"}

	assert.NotEqual(t, Key("projects", "fp", base), Key("dashboard", "fp", base))
	assert.NotEqual(t, Key("projects", "fp1", base), Key("projects", "fp2", base))
	assert.NotEqual(t,
		Key("projects", "fp", map[string]string{"page": "1"}),
		Key("projects", "fp", map[string]string{"page": "2"}),
	)
}
