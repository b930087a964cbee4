package rollingwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAdvancesOnNewSecond(t *testing.T) {
	tr := New(10, 1801)

	isNew := tr.Update("TSLA", 100.0, 1000, 0)
	assert.True(t, isNew)

	isNew = tr.Update("TSLA", 100.5, 1050, 0)
	assert.False(t, isNew, "same-second update should overwrite, not advance")

	isNew = tr.Update("TSLA", 101.0, 1100, 1)
	assert.True(t, isNew)
}

func TestMaxSymbolsRefusesSilently(t *testing.T) {
	tr := New(1, 100)
	assert.True(t, tr.Update("AAA", 10, 100, 0))
	assert.False(t, tr.Update("BBB", 10, 100, 0), "second symbol should be refused, not panic")
}

func TestPriceChangeFiveMinuteWindow(t *testing.T) {
	tr := New(10, 1801)

	base := int64(0)
	tr.Update("AAPL", 184.50, 1000, base)
	for s := int64(1); s <= 300; s++ {
		tr.Update("AAPL", 184.50, 1000, base+s)
	}
	tr.Update("AAPL", 184.50+184.50*0.01, 1000, base+301)

	pc := tr.PriceChanges("AAPL")
	require.NotNil(t, pc.Chg5m)
	assert.InDelta(t, 1.0, *pc.Chg5m, 0.05)
}

func TestFreshnessGuardRejectsStaleAnchor(t *testing.T) {
	tr := New(10, 1801)

	tr.Update("XYZ", 10.0, 100, 0)
	// Next sample arrives 40 minutes later: no intervening samples exist, so
	// the 5-minute lookback must be unavailable rather than reporting a
	// spurious 40-minute delta.
	tr.Update("XYZ", 10.5, 150, 40*60)

	pc := tr.PriceChanges("XYZ")
	assert.Nil(t, pc.Chg5m, "stale anchor beyond window+15s must be rejected")
}

func TestClearSymbolResetsButKeepsMapping(t *testing.T) {
	tr := New(10, 1801)
	tr.Update("AAA", 10, 100, 0)

	ok := tr.ClearSymbol("AAA")
	assert.True(t, ok)

	pc := tr.PriceChanges("AAA")
	assert.Nil(t, pc.Chg1m)

	assert.False(t, tr.ClearSymbol("NOPE"))
}

func TestVolumeWindowsDelta(t *testing.T) {
	tr := New(10, 1801)
	tr.Update("GME", 20.0, 1_000_000, 0)
	for s := int64(1); s <= 60; s++ {
		tr.Update("GME", 20.0, 1_000_000+s*1000, s)
	}
	vw := tr.VolumeWindows("GME")
	require.NotNil(t, vw.Vol1m)
	assert.Equal(t, int64(60_000), *vw.Vol1m)
}
