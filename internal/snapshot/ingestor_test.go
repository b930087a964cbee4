package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePriceFallbackChain(t *testing.T) {
	ing := New()

	bag := map[string]interface{}{
		"day":     map[string]interface{}{"c": 184.80, "o": 183.0, "h": 185.0, "l": 182.5},
		"prevDay": map[string]interface{}{"c": 180.0},
	}
	st, ok := ing.Normalize("AAPL", bag)
	require.True(t, ok)
	assert.Equal(t, 184.80, st.Price, "should fall back to day.c when lastTrade.p is absent")

	bag["lastTrade"] = map[string]interface{}{"p": 185.25}
	st, ok = ing.Normalize("AAPL", bag)
	require.True(t, ok)
	assert.Equal(t, 185.25, st.Price, "lastTrade.p takes priority")
}

func TestNormalizeDropsInvalidRows(t *testing.T) {
	ing := New()

	_, ok := ing.Normalize("", map[string]interface{}{})
	assert.False(t, ok)

	_, ok = ing.Normalize("XYZ", map[string]interface{}{"day": map[string]interface{}{"c": 0.0}})
	assert.False(t, ok)

	processed, invalid := ing.Stats()
	assert.Equal(t, int64(0), processed)
	assert.Equal(t, int64(2), invalid)
}

func TestNormalizeCountersIncrement(t *testing.T) {
	ing := New()
	ing.Normalize("", nil)
	ing.Normalize("AAPL", map[string]interface{}{"day": map[string]interface{}{"c": 100.0}})

	processed, invalid := ing.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), invalid)
}

func TestVolumeFallbackChain(t *testing.T) {
	ing := New()
	bag := map[string]interface{}{
		"day": map[string]interface{}{"c": 10.0, "v": int64(5000)},
		"min": map[string]interface{}{"av": int64(12000)},
	}
	st, ok := ing.Normalize("GME", bag)
	require.True(t, ok)
	assert.Equal(t, int64(12000), st.CumulativeVolume)
}

func TestUnknownFieldsPreservedInRaw(t *testing.T) {
	ing := New()
	bag := map[string]interface{}{
		"day":           map[string]interface{}{"c": 10.0},
		"someNewField":  "future-proof",
	}
	st, ok := ing.Normalize("ABC", bag)
	require.True(t, ok)
	assert.Equal(t, "future-proof", st.Raw["someNewField"])
}
