// Package retracement computes pullback-fraction math for the pullback
// detector family: how far price has retraced from a session extreme back
// toward an anchor (open, previous close, or the opposing extreme).
//
// Built around a validated params struct, a pure calculation method, and a
// rounding helper.
package retracement

import (
	"errors"
	"math"
)

// Params bounds the fractions this calculator will accept.
type Params struct {
	// Fractions this calculator is willing to report retracement against,
	// e.g. {0.25, 0.75} for the 25%/75% pullback detectors.
	Fractions []float64
}

// Calculator computes FractionRetraced and IsAtFraction for the pullback
// detector family.
type Calculator struct {
	params Params
}

// New validates params and returns a Calculator.
func New(params Params) (*Calculator, error) {
	if len(params.Fractions) == 0 {
		return nil, errors.New("retracement: at least one fraction required")
	}
	for _, f := range params.Fractions {
		if f <= 0 || f > 1 {
			return nil, errors.New("retracement: fractions must be in (0, 1]")
		}
	}
	return &Calculator{params: params}, nil
}

// FractionRetraced returns how far price has moved back from extreme toward
// anchor, as a fraction of the anchor-to-extreme distance. Returns 0 if
// anchor equals extreme (no move to retrace).
func FractionRetraced(anchor, extreme, price float64) float64 {
	span := extreme - anchor
	if span == 0 {
		return 0
	}
	return (extreme - price) / span
}

// IsAtFraction reports whether FractionRetraced(anchor, extreme, price) has
// just crossed upward through target, given the previous price — used by
// the pullback detector to fire on the crossing edge rather than continuously.
func IsAtFraction(anchor, extreme, prevPrice, currPrice, target float64) bool {
	prevFrac := FractionRetraced(anchor, extreme, prevPrice)
	currFrac := FractionRetraced(anchor, extreme, currPrice)
	return prevFrac < target && currFrac >= target
}

// Round applies a math.Floor(x*10^n)/10^n rounding convention.
func Round(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Floor(v*mult) / mult
}

// Fractions exposes the configured fraction set for detector construction.
func (c *Calculator) Fractions() []float64 { return c.params.Fractions }
