package detector

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func st(ts int64, price float64) *tickerstate.State {
	return &tickerstate.State{Symbol: "TSLA", Timestamp: time.Unix(ts, 0), Price: price}
}

// S1 — New high.
func TestScenarioNewHigh(t *testing.T) {
	d := NewNewHighDetector()
	memo := Memo{}

	t0 := st(0, 250.00)
	events := d.Evaluate(nil, t0, memo)
	assert.Empty(t, events, "first tick only seeds the memo")

	t1 := st(1, 250.50)
	events = d.Evaluate(t0, t1, memo)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeNewHigh, events[0].EventType)
	assert.Equal(t, 250.00, *events[0].PrevValue)
	assert.Equal(t, 250.50, *events[0].NewValue)
	assert.InDelta(t, 0.50, *events[0].Delta, 0.0001)
}

// S2 — VWAP cross up, flat continuation, then cross down.
func TestScenarioVWAPCross(t *testing.T) {
	d := NewVWAPCross()
	memo := Memo{}

	prev := &tickerstate.State{Symbol: "AAPL", Price: 184.50, VWAP: 185.00}
	curr := &tickerstate.State{Symbol: "AAPL", Price: 185.25, VWAP: 185.00, Timestamp: time.Unix(1, 0)}
	events := d.Evaluate(prev, curr, memo)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeVWAPCrossUp, events[0].EventType)

	prev2 := curr
	curr2 := &tickerstate.State{Symbol: "AAPL", Price: 185.30, VWAP: 185.00, Timestamp: time.Unix(2, 0)}
	events = d.Evaluate(prev2, curr2, memo)
	assert.Empty(t, events, "still above VWAP, no new crossing")

	prev3 := curr2
	curr3 := &tickerstate.State{Symbol: "AAPL", Price: 184.80, VWAP: 185.00, Timestamp: time.Unix(3, 0)}
	events = d.Evaluate(prev3, curr3, memo)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeVWAPCrossDown, events[0].EventType)
}

// S3 — RVOL spike crossing with arm/disarm.
func TestScenarioRVOLSpikeCrossing(t *testing.T) {
	d := NewRVOLSpikeDetector()
	memo := Memo{}

	mk := func(rvol float64, ts int64) *tickerstate.State {
		return &tickerstate.State{Symbol: "GME", RVOL: rvol, Timestamp: time.Unix(ts, 0)}
	}

	s1, s2, s3, s4, s5 := mk(2.5, 1), mk(4.0, 2), mk(4.5, 3), mk(2.0, 4), mk(3.5, 5)

	e12 := d.Evaluate(s1, s2, memo)
	require.Len(t, e12, 1, "2.5 -> 4.0 crosses 3.0 threshold")

	e23 := d.Evaluate(s2, s3, memo)
	assert.Empty(t, e23, "still above threshold, no re-fire")

	e34 := d.Evaluate(s3, s4, memo)
	assert.Empty(t, e34, "dropping below threshold fires nothing itself")

	e45 := d.Evaluate(s4, s5, memo)
	require.Len(t, e45, 1, "re-crossing the threshold fires once more")
}

// S4 — Halt / resume with duration.
func TestScenarioHaltResume(t *testing.T) {
	d := NewHaltDetector()
	memo := Memo{}

	t0 := &tickerstate.State{Symbol: "XYZ", Halted: false, Timestamp: time.Unix(1000, 0)}
	t1 := &tickerstate.State{Symbol: "XYZ", Halted: true, Timestamp: time.Unix(1000, 0)}
	events := d.Evaluate(t0, t1, memo)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeHalt, events[0].EventType)

	t2 := &tickerstate.State{Symbol: "XYZ", Halted: false, Timestamp: time.Unix(1317, 0)}
	events = d.Evaluate(t1, t2, memo)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeResume, events[0].EventType)
	assert.Equal(t, int64(317), events[0].Details["duration_seconds"])
}

func TestInitialSafeGating(t *testing.T) {
	r := NewRegistry()
	r.Register(NewNewHighDetector())   // initial-safe
	r.Register(NewVWAPCross())         // not initial-safe

	curr := st(0, 100)
	events := r.EvaluateAll("TSLA", nil, curr, nil)
	assert.Empty(t, events, "no events on a bare first tick")
}

func TestDetectorPanicIsolated(t *testing.T) {
	r := NewRegistry()
	r.Register(panickyDetector{})
	r.Register(NewNewHighDetector())

	var errored string
	curr := st(1, 100)
	prev := st(0, 90)
	events := r.EvaluateAll("TSLA", prev, curr, func(ruleID string, err interface{}) {
		errored = ruleID
	})

	assert.Equal(t, "event:test:panicky", errored)
	_ = events // the well-behaved detector after it should still have run without crashing the call
}

type panickyDetector struct{}

func (panickyDetector) ID() string                    { return "event:test:panicky" }
func (panickyDetector) EventTypes() []event.Type       { return nil }
func (panickyDetector) InitialSafe() bool              { return true }
func (panickyDetector) DefaultCooldown() time.Duration { return 0 }
func (panickyDetector) ResetSession(memo Memo)         {}
func (panickyDetector) Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record {
	panic("boom")
}
