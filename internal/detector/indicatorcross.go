package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

const fiveMinuteBarSeconds = 300

func barIndex(t time.Time) int64 {
	return t.Unix() / fiveMinuteBarSeconds
}

// IndicatorCrossDetector fires on the edge of a comparison between two
// 5-minute-bar indicator values, requiring the bar index to have advanced
// since the detector's last fire for this symbol — this suppresses
// intra-bar flapping as multiple snapshot ticks land within the same bar.
type IndicatorCrossDetector struct {
	ruleID   string
	up, down event.Type
	a, b     levelFunc
	cooldown time.Duration
}

func NewSMA8x20Cross5mDetector() *IndicatorCrossDetector {
	return &IndicatorCrossDetector{
		ruleID: "event:system:sma8_sma20_cross_5m", up: event.TypeSMA8x20Cross5m, down: event.TypeSMA8x20Cross5m,
		a: func(s *tickerstate.State) float64 { return s.SMA8_5m },
		b: func(s *tickerstate.State) float64 { return s.SMA20_5m },
	}
}

func NewMACDSignalCross5mDetector() *IndicatorCrossDetector {
	return &IndicatorCrossDetector{
		ruleID: "event:system:macd_signal_cross_5m", up: event.TypeMACDSignalCross5m, down: event.TypeMACDSignalCross5m,
		a: func(s *tickerstate.State) float64 { return s.MACD5m },
		b: func(s *tickerstate.State) float64 { return s.MACDSignal5m },
	}
}

func NewMACDZeroCross5mDetector() *IndicatorCrossDetector {
	return &IndicatorCrossDetector{
		ruleID: "event:system:macd_zero_cross_5m", up: event.TypeMACDZeroCross5m, down: event.TypeMACDZeroCross5m,
		a: func(s *tickerstate.State) float64 { return s.MACD5m },
		b: func(s *tickerstate.State) float64 { return 0 },
	}
}

func (d *IndicatorCrossDetector) ID() string                   { return d.ruleID }
func (d *IndicatorCrossDetector) EventTypes() []event.Type      { return []event.Type{d.up, d.down} }
func (d *IndicatorCrossDetector) InitialSafe() bool             { return false }
func (d *IndicatorCrossDetector) DefaultCooldown() time.Duration { return d.cooldown }
func (d *IndicatorCrossDetector) ResetSession(memo Memo)         { delete(memo, "lastFireBar") }

func (d *IndicatorCrossDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil {
		return nil
	}
	prevSign := sign(d.a(prev) - d.b(prev))
	currSign := sign(d.a(curr) - d.b(curr))
	if prevSign == currSign || currSign == 0 {
		return nil
	}

	bar := barIndex(curr.Timestamp)
	if lastBar, ok := memo["lastFireBar"].(int64); ok && lastBar == bar {
		return nil
	}
	memo["lastFireBar"] = bar

	t := d.down
	if currSign > 0 {
		t = d.up
	}
	rec := event.New(t, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(d.a(prev))
	rec.NewValue = event.PtrFloat(d.a(curr))
	annotateContext(rec, curr)
	return []*event.Record{rec}
}

// StochasticEdgeDetector fires when a 5-minute %K crosses into overbought
// (>=80) or oversold (<=20) territory, same bar-advance suppression as other
// 5-minute indicator crosses.
type StochasticEdgeDetector struct {
	ruleID    string
	evType    event.Type
	threshold float64
	overbought bool
}

func NewStochOverbought5mDetector() *StochasticEdgeDetector {
	return &StochasticEdgeDetector{ruleID: "event:system:stoch_overbought_5m", evType: event.TypeStochOverbought5m, threshold: 80, overbought: true}
}

func NewStochOversold5mDetector() *StochasticEdgeDetector {
	return &StochasticEdgeDetector{ruleID: "event:system:stoch_oversold_5m", evType: event.TypeStochOversold5m, threshold: 20, overbought: false}
}

func (d *StochasticEdgeDetector) ID() string                   { return d.ruleID }
func (d *StochasticEdgeDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *StochasticEdgeDetector) InitialSafe() bool             { return false }
func (d *StochasticEdgeDetector) DefaultCooldown() time.Duration { return 0 }
func (d *StochasticEdgeDetector) ResetSession(memo Memo)         { delete(memo, "lastFireBar") }

func (d *StochasticEdgeDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil {
		return nil
	}
	var entered bool
	if d.overbought {
		entered = prev.Stoch5mK < d.threshold && curr.Stoch5mK >= d.threshold
	} else {
		entered = prev.Stoch5mK > d.threshold && curr.Stoch5mK <= d.threshold
	}
	if !entered {
		return nil
	}

	bar := barIndex(curr.Timestamp)
	if lastBar, ok := memo["lastFireBar"].(int64); ok && lastBar == bar {
		return nil
	}
	memo["lastFireBar"] = bar

	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(prev.Stoch5mK)
	rec.NewValue = event.PtrFloat(curr.Stoch5mK)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
