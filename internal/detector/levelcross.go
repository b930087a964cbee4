package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// levelFunc extracts the comparison level (VWAP, a moving average, etc.)
// from a state. The level itself may drift tick to tick; the crossing test
// always uses each bar's then-current level.
type levelFunc func(*tickerstate.State) float64

// LevelCrossDetector emits an event when sign(price - level) flips between
// prev and curr. One fire per contiguous same-sign segment;
// a reverse crossing rearms immediately since no memo suppression is
// needed — the sign comparison itself is the dedup key at the engine layer.
type LevelCrossDetector struct {
	ruleID   string
	up, down event.Type
	level    levelFunc
	cooldown time.Duration
}

func NewVWAPCross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:vwap_cross", up: event.TypeVWAPCrossUp, down: event.TypeVWAPCrossDown,
		level:    func(s *tickerstate.State) float64 { return s.VWAP },
		cooldown: 0,
	}
}

func NewOpenCross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:open_cross", up: event.TypeOpenCrossUp, down: event.TypeOpenCrossDown,
		level: func(s *tickerstate.State) float64 { return s.Open },
	}
}

func NewPrevCloseCross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:prev_close_cross", up: event.TypePrevCloseCrossUp, down: event.TypePrevCloseCrossDn,
		level: func(s *tickerstate.State) float64 { return s.PrevClose },
	}
}

func NewSMA20Cross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:sma20_cross", up: event.TypeSMA20CrossUp, down: event.TypeSMA20CrossDown,
		level: func(s *tickerstate.State) float64 { return s.SMA20 },
	}
}

func NewSMA50Cross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:sma50_cross", up: event.TypeSMA50CrossUp, down: event.TypeSMA50CrossDown,
		level: func(s *tickerstate.State) float64 { return s.SMA50 },
	}
}

func NewEMA20Cross() *LevelCrossDetector {
	return &LevelCrossDetector{
		ruleID: "event:system:ema20_cross", up: event.TypeEMA20CrossUp, down: event.TypeEMA20CrossDown,
		level: func(s *tickerstate.State) float64 { return s.EMA20 },
	}
}

func (d *LevelCrossDetector) ID() string                     { return d.ruleID }
func (d *LevelCrossDetector) EventTypes() []event.Type        { return []event.Type{d.up, d.down} }
func (d *LevelCrossDetector) InitialSafe() bool                { return false }
func (d *LevelCrossDetector) DefaultCooldown() time.Duration   { return d.cooldown }
func (d *LevelCrossDetector) ResetSession(memo Memo)            {}

func (d *LevelCrossDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil {
		return nil
	}
	prevLevel, currLevel := d.level(prev), d.level(curr)
	if prevLevel == 0 || currLevel == 0 {
		return nil
	}
	prevSign := sign(prev.Price - prevLevel)
	currSign := sign(curr.Price - currLevel)
	if prevSign == currSign || currSign == 0 {
		return nil
	}

	t := d.down
	if currSign > 0 {
		t = d.up
	}
	rec := event.New(t, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(prev.Price)
	rec.NewValue = event.PtrFloat(curr.Price)
	rec.Delta = event.PtrFloat(curr.Price - currLevel)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
