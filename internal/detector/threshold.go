package detector

import (
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// metricFunc extracts the metric a threshold detector watches (RVOL,
// percent change, a rolling window reading, etc.).
type metricFunc func(*tickerstate.State) (float64, bool)

// ThresholdDetector fires on first-time entry into a bucket:
// prev.metric < threshold <= curr.metric. Using crossing rather than state
// is essential — a state-based test would fire every tick while a hot
// symbol remains above threshold.
type ThresholdDetector struct {
	ruleID    string
	evType    event.Type
	metric    metricFunc
	threshold float64
	cooldown  time.Duration
}

func NewRVOLSpikeDetector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:rvol_spike_3x", evType: event.TypeRVOLSpike, threshold: 3.0,
		metric: func(s *tickerstate.State) (float64, bool) { return s.RVOL, true },
	}
}

func NewVolumeSurgeDetector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:volume_surge_5x", evType: event.TypeVolumeSurge, threshold: 5.0,
		metric: func(s *tickerstate.State) (float64, bool) { return s.RVOL, true },
	}
}

func NewPercentUp5Detector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:percent_up_5", evType: event.TypePercentUp5, threshold: 5.0,
		metric: func(s *tickerstate.State) (float64, bool) { return s.ChangePercent(), true },
	}
}

func NewPercentUp10Detector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:percent_up_10", evType: event.TypePercentUp10, threshold: 10.0,
		metric: func(s *tickerstate.State) (float64, bool) { return s.ChangePercent(), true },
	}
}

func NewRunningUpDetector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:running_up_10m", evType: event.TypeRunningUp, threshold: 3.0,
		metric: func(s *tickerstate.State) (float64, bool) {
			if s.Chg10m == nil {
				return 0, false
			}
			return *s.Chg10m, true
		},
	}
}

func NewRunningDownDetector() *ThresholdDetector {
	return &ThresholdDetector{
		ruleID: "event:system:running_down_10m", evType: event.TypeRunningDown, threshold: -3.0,
		metric: func(s *tickerstate.State) (float64, bool) {
			if s.Chg10m == nil {
				return 0, false
			}
			return *s.Chg10m, true
		},
	}
}

func (d *ThresholdDetector) ID() string                   { return d.ruleID }
func (d *ThresholdDetector) EventTypes() []event.Type      { return []event.Type{d.evType} }
func (d *ThresholdDetector) InitialSafe() bool             { return false }
func (d *ThresholdDetector) DefaultCooldown() time.Duration { return d.cooldown }
func (d *ThresholdDetector) ResetSession(memo Memo)         {}

func (d *ThresholdDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	if prev == nil {
		return nil
	}
	prevVal, prevOK := d.metric(prev)
	currVal, currOK := d.metric(curr)
	if !prevOK || !currOK {
		return nil
	}

	crossing := d.threshold >= 0
	var entered bool
	if crossing {
		entered = prevVal < d.threshold && currVal >= d.threshold
	} else {
		entered = prevVal > d.threshold && currVal <= d.threshold
	}
	if !entered {
		return nil
	}

	rec := event.New(d.evType, d.ruleID, curr.Symbol, curr.Timestamp, curr.Price)
	rec.PrevValue = event.PtrFloat(prevVal)
	rec.NewValue = event.PtrFloat(currVal)
	rec.Delta = event.PtrFloat(currVal - prevVal)
	annotateContext(rec, curr)
	return []*event.Record{rec}
}
