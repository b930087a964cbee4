// Package detector implements the ~80-strong plugin set of stateless-by-
// contract event detectors, plus the registry that owns them in fixed
// registration order.
package detector

import (
	"sync"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// Memo is a detector-private per-symbol scratch slot. Detectors must not
// read or write any memo but their own declared slot: per-symbol memos are
// owned by a single detector, and cross-detector sharing is forbidden.
type Memo = map[string]interface{}

// Detector is the explicit variant-set replacement for the source's
// duck-typed execute() methods.
type Detector interface {
	// ID is the stable rule id used for cooldown keying, e.g.
	// "event:system:rvol_spike_3x".
	ID() string
	// EventTypes lists every tag this detector may emit.
	EventTypes() []event.Type
	// InitialSafe reports whether this detector may fire on a symbol's very
	// first tick (no prior state).
	InitialSafe() bool
	// DefaultCooldown is the detector's suggested minimum refire interval.
	DefaultCooldown() time.Duration
	// Evaluate inspects prev/curr state plus this detector's own memo and
	// returns zero or more fired events. Must not mutate memo outside of
	// assigning through the provided pointer-map.
	Evaluate(prev, curr *tickerstate.State, memo Memo) []*event.Record
	// ResetSession clears any session-scoped memo state (called on session
	// transition into PRE_MARKET).
	ResetSession(memo Memo)
}

// entry binds a detector to its per-symbol memo store.
type entry struct {
	det   Detector
	memos sync.Map // symbol -> Memo
}

// Registry is a read-only-after-startup, fixed-order list of detectors.
// Order within a symbol is registration order, preserving per-symbol
// determinism.
type Registry struct {
	entries []*entry
}

// NewRegistry builds an empty registry; call Register for each detector.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a detector. Not safe to call concurrently with Evaluate;
// intended to be called once at startup before the engine begins dispatch.
func (r *Registry) Register(d Detector) {
	r.entries = append(r.entries, &entry{det: d})
}

// Len reports the number of registered detectors.
func (r *Registry) Len() int { return len(r.entries) }

// EvaluateAll runs every registered detector against prev/curr for one
// symbol, in registration order, isolating panics and errors so a
// misbehaving detector cannot halt the pipeline.
func (r *Registry) EvaluateAll(symbol string, prev, curr *tickerstate.State, onError func(ruleID string, err interface{})) []*event.Record {
	var out []*event.Record
	for _, e := range r.entries {
		if prev == nil && !e.det.InitialSafe() {
			continue
		}
		memoVal, _ := e.memos.LoadOrStore(symbol, Memo{})
		memo := memoVal.(Memo)

		func() {
			defer func() {
				if rec := recover(); rec != nil && onError != nil {
					onError(e.det.ID(), rec)
				}
			}()
			events := e.det.Evaluate(prev, curr, memo)
			out = append(out, events...)
		}()
	}
	return out
}

// ResetSession clears every detector's memo for symbol, called on the
// PRE_MARKET session transition.
func (r *Registry) ResetSession(symbol string) {
	for _, e := range r.entries {
		memoVal, _ := e.memos.LoadOrStore(symbol, Memo{})
		e.det.ResetSession(memoVal.(Memo))
	}
}

// DefaultCooldown exposes a registered detector's suggested cooldown by rule
// id, used by the engine to seed its cooldown table.
func (r *Registry) DefaultCooldown(ruleID string) (time.Duration, bool) {
	for _, e := range r.entries {
		if e.det.ID() == ruleID {
			return e.det.DefaultCooldown(), true
		}
	}
	return 0, false
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
