package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// GapReversalDetector records the session's opening gap sign and fires when
// price crosses back through the previous close with the opposite sign of
// the initial gap, confirmed by a second consecutive tick in that same
// reversal direction (guards against noise at the open).
type GapReversalDetector struct {
	ruleID   string
	evType   event.Type
	wantGapUp bool // true: GAP_UP_REVERSAL watches gap-up sessions; false: gap-down
	cooldown  time.Duration
}

func NewGapUpReversalDetector() *GapReversalDetector {
	return &GapReversalDetector{ruleID: "event:system:gap_up_reversal", evType: event.TypeGapUpReversal, wantGapUp: true}
}

func NewGapDownReversalDetector() *GapReversalDetector {
	return &GapReversalDetector{ruleID: "event:system:gap_down_reversal", evType: event.TypeGapDownReversal, wantGapUp: false}
}

func (d *GapReversalDetector) ID() string                   { return d.ruleID }
func (d *GapReversalDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *GapReversalDetector) InitialSafe() bool             { return true }
func (d *GapReversalDetector) DefaultCooldown() time.Duration { return d.cooldown }
func (d *GapReversalDetector) ResetSession(memo Memo) {
	delete(memo, "gapSign")
	delete(memo, "confirming")
}

func (d *GapReversalDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if _, recorded := memo["gapSign"]; !recorded {
		memo["gapSign"] = sign(curr.GapPercent())
		return nil
	}
	gapSign, _ := memo["gapSign"].(int)
	wantSign := 1
	if !d.wantGapUp {
		wantSign = -1
	}
	if gapSign != wantSign || prev == nil {
		return nil
	}

	// Reversal direction is opposite the gap: a gap-up reverses downward
	// through prevClose, a gap-down reverses upward through it.
	prevBelow := prev.Price < curr.PrevClose
	currBelow := curr.Price < curr.PrevClose
	crossedReversal := prevBelow != currBelow && ((d.wantGapUp && currBelow) || (!d.wantGapUp && !currBelow))

	confirming, _ := memo["confirming"].(bool)
	if crossedReversal {
		memo["confirming"] = true
		return nil
	}
	if !confirming {
		return nil
	}
	delete(memo, "confirming")

	stillReversing := (d.wantGapUp && currBelow) || (!d.wantGapUp && !currBelow)
	if !stillReversing {
		return nil
	}

	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(prev.Price)
	rec.NewValue = event.PtrFloat(curr.Price)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
