package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// HaltDetector is the only true state machine at detector level: states
// {ACTIVE, HALTED}, transitioning on the halt flag. Both HALT
// and RESUME are produced by the same detector since they share the memo
// that records the halt's start time.
type HaltDetector struct{}

func NewHaltDetector() *HaltDetector { return &HaltDetector{} }

func (d *HaltDetector) ID() string              { return "event:system:halt_resume" }
func (d *HaltDetector) EventTypes() []event.Type { return []event.Type{event.TypeHalt, event.TypeResume} }
func (d *HaltDetector) InitialSafe() bool        { return true }
func (d *HaltDetector) DefaultCooldown() time.Duration { return 0 }
func (d *HaltDetector) ResetSession(memo Memo)   { delete(memo, "haltedAt") }

func (d *HaltDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil {
		return nil
	}

	if !prev.Halted && curr.Halted {
		memo["haltedAt"] = curr.Timestamp
		rec := event.New(event.TypeHalt, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
		annotateContext(rec, curr)
		return []*event.Record{rec}
	}

	if prev.Halted && !curr.Halted {
		haltedAt, _ := memo["haltedAt"].(time.Time)
		duration := curr.Timestamp.Sub(haltedAt)
		delete(memo, "haltedAt")

		rec := event.New(event.TypeResume, d.ID(), curr.Symbol, curr.Timestamp, curr.Price)
		rec.Details = map[string]interface{}{"duration_seconds": int64(duration.Seconds())}
		annotateContext(rec, curr)
		return []*event.Record{rec}
	}

	return nil
}
