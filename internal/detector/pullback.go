package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/retracement"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// anchorFunc selects the anchor price a pullback is measured against (open,
// previous close, or the opposing session extreme).
type anchorFunc func(*tickerstate.State) float64

// PullbackDetector tracks the session extreme via memo and fires when price
// has retraced the configured fraction of the move from anchor to extreme,
// covering the PULLBACK_{75,25}_FROM_{HIGH,LOW}[_OPEN|_CLOSE] family.
type PullbackDetector struct {
	ruleID   string
	evType   event.Type
	fromHigh bool // true: extreme is session high; false: session low
	fraction float64
	anchor   anchorFunc
	cooldown time.Duration
}

func NewPullback75FromHighDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_75_from_high", evType: event.TypePullback75FromHigh,
		fromHigh: true, fraction: 0.75,
		anchor: func(s *tickerstate.State) float64 { return s.IntradayLow },
	}
}

func NewPullback25FromHighDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_25_from_high", evType: event.TypePullback25FromHigh,
		fromHigh: true, fraction: 0.25,
		anchor: func(s *tickerstate.State) float64 { return s.IntradayLow },
	}
}

func NewPullback75FromLowDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_75_from_low", evType: event.TypePullback75FromLow,
		fromHigh: false, fraction: 0.75,
		anchor: func(s *tickerstate.State) float64 { return s.IntradayHigh },
	}
}

func NewPullback25FromLowDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_25_from_low", evType: event.TypePullback25FromLow,
		fromHigh: false, fraction: 0.25,
		anchor: func(s *tickerstate.State) float64 { return s.IntradayHigh },
	}
}

func NewPullback75FromHighOpenDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_75_from_high_open", evType: event.TypePullback75FromHighOpen,
		fromHigh: true, fraction: 0.75,
		anchor: func(s *tickerstate.State) float64 { return s.Open },
	}
}

func NewPullback75FromHighCloseDetector() *PullbackDetector {
	return &PullbackDetector{
		ruleID: "event:system:pullback_75_from_high_close", evType: event.TypePullback75FromHighClose,
		fromHigh: true, fraction: 0.75,
		anchor: func(s *tickerstate.State) float64 { return s.PrevClose },
	}
}

func (d *PullbackDetector) ID() string                   { return d.ruleID }
func (d *PullbackDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *PullbackDetector) InitialSafe() bool             { return true }
func (d *PullbackDetector) DefaultCooldown() time.Duration { return d.cooldown }
func (d *PullbackDetector) ResetSession(memo Memo)         { delete(memo, "extreme") }

func (d *PullbackDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	extreme, seen := memo["extreme"].(float64)
	if !seen {
		extreme = curr.Price
	}
	if d.fromHigh && curr.Price > extreme {
		extreme = curr.Price
	} else if !d.fromHigh && curr.Price < extreme {
		extreme = curr.Price
	}
	memo["extreme"] = extreme

	if prev == nil {
		return nil
	}

	anchor := d.anchor(curr)
	if anchor == 0 || extreme == anchor {
		return nil
	}

	var crossed bool
	if d.fromHigh {
		crossed = retracement.IsAtFraction(anchor, extreme, prev.Price, curr.Price, d.fraction)
	} else {
		// Mirror the math for a downside extreme: retracement is measured
		// from the low back up toward the anchor, so invert the span sense.
		crossed = retracement.IsAtFraction(extreme, anchor, curr.Price, prev.Price, 1-d.fraction)
	}
	if !crossed {
		return nil
	}

	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(extreme)
	rec.NewValue = event.PtrFloat(curr.Price)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
