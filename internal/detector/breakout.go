package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// OpeningRangeBreakoutDetector fires when price crosses the session's
// opening-range bounds, frozen upstream at the configured N-minute mark
// after session open.
type OpeningRangeBreakoutDetector struct {
	up, down event.Type
}

func NewOpeningRangeBreakoutDetector() *OpeningRangeBreakoutDetector {
	return &OpeningRangeBreakoutDetector{up: event.TypeOpeningRangeBreakoutUp, down: event.TypeOpeningRangeBreakoutDown}
}

func (d *OpeningRangeBreakoutDetector) ID() string                   { return "event:system:orb" }
func (d *OpeningRangeBreakoutDetector) EventTypes() []event.Type      { return []event.Type{d.up, d.down} }
func (d *OpeningRangeBreakoutDetector) InitialSafe() bool             { return false }
func (d *OpeningRangeBreakoutDetector) DefaultCooldown() time.Duration { return 0 }
func (d *OpeningRangeBreakoutDetector) ResetSession(memo Memo)         { delete(memo, "armedUp"); delete(memo, "armedDown") }

func (d *OpeningRangeBreakoutDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil || curr.OpeningRangeHigh == 0 || curr.OpeningRangeLow == 0 {
		return nil
	}

	var out []*event.Record
	if prev.Price <= curr.OpeningRangeHigh && curr.Price > curr.OpeningRangeHigh {
		if armed, _ := memo["armedUp"].(bool); !armed {
			memo["armedUp"] = true
			rec := event.New(d.up, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
			rec.PrevValue = event.PtrFloat(curr.OpeningRangeHigh)
			annotateContext(rec, curr)
			out = append(out, rec)
		}
	}
	if prev.Price >= curr.OpeningRangeLow && curr.Price < curr.OpeningRangeLow {
		if armed, _ := memo["armedDown"].(bool); !armed {
			memo["armedDown"] = true
			rec := event.New(d.down, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
			rec.PrevValue = event.PtrFloat(curr.OpeningRangeLow)
			annotateContext(rec, curr)
			out = append(out, rec)
		}
	}
	return out
}

// ConsolidationBreakoutDetector detects a tight consolidation —
// (recent_range / ATR) < 0.5 sustained for at least consolidationBars bars
// — via a memo-tracked consecutive-bar counter, then fires on breakout of
// the consolidation band it recorded.
type ConsolidationBreakoutDetector struct {
	up, down        event.Type
	consolidationBars int
	rangeToATR      float64
}

func NewConsolidationBreakoutDetector() *ConsolidationBreakoutDetector {
	return &ConsolidationBreakoutDetector{
		up: event.TypeConsolidationBreakoutUp, down: event.TypeConsolidationBreakoutDown,
		consolidationBars: 5, rangeToATR: 0.5,
	}
}

func (d *ConsolidationBreakoutDetector) ID() string                   { return "event:system:consolidation_breakout" }
func (d *ConsolidationBreakoutDetector) EventTypes() []event.Type      { return []event.Type{d.up, d.down} }
func (d *ConsolidationBreakoutDetector) InitialSafe() bool             { return false }
func (d *ConsolidationBreakoutDetector) DefaultCooldown() time.Duration { return 0 }
func (d *ConsolidationBreakoutDetector) ResetSession(memo Memo) {
	delete(memo, "bars")
	delete(memo, "bandHigh")
	delete(memo, "bandLow")
	delete(memo, "consolidating")
}

func (d *ConsolidationBreakoutDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil || curr.ATR == 0 {
		return nil
	}

	recentRange := curr.IntradayHigh - curr.IntradayLow
	ratio := recentRange / curr.ATR

	consolidating, _ := memo["consolidating"].(bool)
	bars, _ := memo["bars"].(int)

	if ratio < d.rangeToATR {
		bars++
		memo["bars"] = bars
		if bars >= d.consolidationBars && !consolidating {
			memo["consolidating"] = true
			memo["bandHigh"] = curr.IntradayHigh
			memo["bandLow"] = curr.IntradayLow
		}
		return nil
	}

	// Range expanded: counter resets, but a prior consolidation band
	// remains active until a breakout fires or session reset clears it.
	memo["bars"] = 0

	if !consolidating {
		return nil
	}
	bandHigh, _ := memo["bandHigh"].(float64)
	bandLow, _ := memo["bandLow"].(float64)

	var out []*event.Record
	if curr.Price > bandHigh {
		rec := event.New(d.up, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
		rec.PrevValue = event.PtrFloat(bandHigh)
		annotateContext(rec, curr)
		out = append(out, rec)
		delete(memo, "consolidating")
	} else if curr.Price < bandLow {
		rec := event.New(d.down, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
		rec.PrevValue = event.PtrFloat(bandLow)
		annotateContext(rec, curr)
		out = append(out, rec)
		delete(memo, "consolidating")
	}
	return out
}
