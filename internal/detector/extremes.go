package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// ExtremeDetector maintains a per-symbol monotonic session-extreme memo and
// fires exactly once per new extreme — the reference value itself is what
// the event updates, which is the distinction from level-crossing detectors.
type ExtremeDetector struct {
	ruleID   string
	evType   event.Type
	isHigh   bool // true: fires on new high; false: fires on new low
	cooldown time.Duration
}

func NewNewHighDetector() *ExtremeDetector {
	return &ExtremeDetector{ruleID: "event:system:new_high", evType: event.TypeNewHigh, isHigh: true}
}

func NewNewLowDetector() *ExtremeDetector {
	return &ExtremeDetector{ruleID: "event:system:new_low", evType: event.TypeNewLow, isHigh: false}
}

func NewFiftyTwoWeekHighDetector() *ExtremeDetector {
	return &ExtremeDetector{ruleID: "event:system:fifty_two_week_high", evType: event.TypeFiftyTwoWeekHigh, isHigh: true, cooldown: 24 * time.Hour}
}

func NewFiftyTwoWeekLowDetector() *ExtremeDetector {
	return &ExtremeDetector{ruleID: "event:system:fifty_two_week_low", evType: event.TypeFiftyTwoWeekLow, isHigh: false, cooldown: 24 * time.Hour}
}

func (d *ExtremeDetector) ID() string                   { return d.ruleID }
func (d *ExtremeDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *ExtremeDetector) InitialSafe() bool             { return true }
func (d *ExtremeDetector) DefaultCooldown() time.Duration { return d.cooldown }

func (d *ExtremeDetector) ResetSession(memo Memo) {
	delete(memo, "extreme")
	delete(memo, "seen")
}

func (d *ExtremeDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	seen, _ := memo["seen"].(bool)
	if !seen {
		memo["seen"] = true
		memo["extreme"] = curr.Price
		return nil
	}

	extreme, _ := memo["extreme"].(float64)
	var fired bool
	if d.isHigh && curr.Price > extreme {
		fired = true
	} else if !d.isHigh && curr.Price < extreme {
		fired = true
	}
	if !fired {
		return nil
	}

	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(extreme)
	rec.NewValue = event.PtrFloat(curr.Price)
	rec.Delta = event.PtrFloat(curr.Price - extreme)
	annotateContext(rec, curr)

	memo["extreme"] = curr.Price
	return []*event.Record{rec}
}

// SessionExtremeDetector is a variant that reads the upstream-computed
// pre/post-market extreme fields directly off the state instead of
// maintaining its own memo-tracked running extreme — those fields are
// already session-scoped by the upstream ingester, so the detector only
// needs edge detection against its own last-seen value.
type SessionExtremeDetector struct {
	ruleID   string
	evType   event.Type
	isHigh   bool
	extract  func(*tickerstate.State) float64
	cooldown time.Duration
}

func NewPreMarketHighDetector() *SessionExtremeDetector {
	return &SessionExtremeDetector{
		ruleID: "event:system:pre_market_high", evType: event.TypePreMarketHigh, isHigh: true,
		extract: func(s *tickerstate.State) float64 { return s.PreMarketHigh },
	}
}

func NewPreMarketLowDetector() *SessionExtremeDetector {
	return &SessionExtremeDetector{
		ruleID: "event:system:pre_market_low", evType: event.TypePreMarketLow, isHigh: false,
		extract: func(s *tickerstate.State) float64 { return s.PreMarketLow },
	}
}

func NewPostMarketHighDetector() *SessionExtremeDetector {
	return &SessionExtremeDetector{
		ruleID: "event:system:post_market_high", evType: event.TypePostMarketHigh, isHigh: true,
		extract: func(s *tickerstate.State) float64 { return s.PostMarketHigh },
	}
}

func NewPostMarketLowDetector() *SessionExtremeDetector {
	return &SessionExtremeDetector{
		ruleID: "event:system:post_market_low", evType: event.TypePostMarketLow, isHigh: false,
		extract: func(s *tickerstate.State) float64 { return s.PostMarketLow },
	}
}

func (d *SessionExtremeDetector) ID() string                   { return d.ruleID }
func (d *SessionExtremeDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *SessionExtremeDetector) InitialSafe() bool             { return true }
func (d *SessionExtremeDetector) DefaultCooldown() time.Duration { return d.cooldown }
func (d *SessionExtremeDetector) ResetSession(memo Memo)         { delete(memo, "last") }

func (d *SessionExtremeDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	val := d.extract(curr)
	last, seen := memo["last"].(float64)
	memo["last"] = val
	if !seen || val == 0 {
		return nil
	}
	if val == last {
		return nil
	}
	if (d.isHigh && val <= last) || (!d.isHigh && val >= last) {
		return nil
	}
	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(last)
	rec.NewValue = event.PtrFloat(val)
	rec.Delta = event.PtrFloat(val - last)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
