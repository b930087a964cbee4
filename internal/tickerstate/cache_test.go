package tickerstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	c := NewCache(10, time.Minute)
	s := &State{Symbol: "AAPL", Price: 185.0}

	require.NoError(t, c.Put(s))

	got, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 185.0, got.Price)
}

func TestPutRefusesOverCapacityNewSymbols(t *testing.T) {
	c := NewCache(1, time.Minute)
	require.NoError(t, c.Put(&State{Symbol: "AAA"}))

	err := c.Put(&State{Symbol: "BBB"})
	assert.Error(t, err)

	// Existing symbol updates still succeed.
	assert.NoError(t, c.Put(&State{Symbol: "AAA", Price: 2}))
}

func TestSweepEvictsIdleEntries(t *testing.T) {
	c := NewCache(10, time.Millisecond)
	require.NoError(t, c.Put(&State{Symbol: "AAA"}))

	time.Sleep(5 * time.Millisecond)
	removed := c.Sweep(time.Now())

	assert.Equal(t, 1, removed)
	_, ok := c.Get("AAA")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGapAndChangeHelpers(t *testing.T) {
	s := &State{Open: 100, PrevClose: 95, Price: 101}
	assert.InDelta(t, 5.263, s.GapPercent(), 0.01)
	assert.InDelta(t, 1.0, s.ChangeFromOpen(), 0.01)
	assert.InDelta(t, 6.315, s.ChangePercent(), 0.01)
}
