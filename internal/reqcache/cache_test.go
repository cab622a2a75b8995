package reqcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUnknownBeforeAnyLookup(t *testing.T) {
	c := New[string](false)
	_, found, known := c.Get("term-1")
	assert.False(t, found)
	assert.False(t, known)
}

func TestRememberHitIsReturnedByGet(t *testing.T) {
	c := New[string](false)
	c.Remember("term-1", "resolved", true)

	value, found, known := c.Get("term-1")
	assert.True(t, found)
	assert.True(t, known)
	assert.Equal(t, "resolved", value)
}

func TestRememberMissIsDroppedWhenCacheMissedDisabled(t *testing.T) {
	c := New[string](false)
	c.Remember("term-1", "", false)

	_, found, known := c.Get("term-1")
	assert.False(t, found)
	assert.False(t, known, "cacheMissed=false means a miss is not remembered")
}

func TestRememberMissIsKeptWhenCacheMissedEnabled(t *testing.T) {
	c := New[string](true)
	c.Remember("term-1", "", false)

	_, found, known := c.Get("term-1")
	assert.False(t, found)
	assert.True(t, known, "cacheMissed=true short-circuits a repeated miss")
}

func TestStatsSnapshotTracksHitsAndMisses(t *testing.T) {
	c := New[int](true)
	c.Get("a")              // unknown -> miss
	c.Remember("a", 1, true)
	c.Get("a")              // hit
	c.Get("b")              // unknown -> miss

	stats := c.StatsSnapshot()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 2, stats.Misses)
}
