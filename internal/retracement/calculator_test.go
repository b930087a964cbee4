package retracement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesFractions(t *testing.T) {
	_, err := New(Params{Fractions: nil})
	assert.Error(t, err)

	_, err = New(Params{Fractions: []float64{1.5}})
	assert.Error(t, err)

	c, err := New(Params{Fractions: []float64{0.25, 0.75}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, c.Fractions())
}

func TestFractionRetraced(t *testing.T) {
	// anchor=100 (open), extreme=200 (session high), price retraces to 150:
	// that is exactly 50% of the move back toward the anchor.
	frac := FractionRetraced(100, 200, 150)
	assert.InDelta(t, 0.5, frac, 0.0001)
}

func TestFractionRetracedZeroSpan(t *testing.T) {
	assert.Equal(t, 0.0, FractionRetraced(100, 100, 90))
}

func TestIsAtFractionFiresOnCrossingOnly(t *testing.T) {
	// anchor=100, extreme=200, target 0.25 => price threshold 175.
	assert.True(t, IsAtFraction(100, 200, 180, 174, 0.25))
	assert.False(t, IsAtFraction(100, 200, 170, 172, 0.25), "still below target, no crossing")
	assert.False(t, IsAtFraction(100, 200, 174, 170, 0.25), "prevFrac already at/above target, not a fresh crossing")
}

func TestRoundMatchesFloorConvention(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2399, 2))
}
