// Package rollingwindow implements the per-symbol circular buffer of price
// and cumulative-volume samples that backs the 1/5/10/15/30-minute lookback
// readings consumed by window-threshold detectors.
package rollingwindow

import (
	"fmt"
	"sync"
)

// lookbackMinutes are the five windows every reading covers, in spec order.
var lookbackMinutes = [5]int{1, 5, 10, 15, 30}

// freshnessGraceSeconds is added to a lookback's target window before a
// resolved sample is rejected as stale. Without this guard a thin
// after-hours symbol with a last trade 40 minutes old would report a
// spurious 40-minute delta as "5 minute" change.
const freshnessGraceSeconds = 15

// symbolSlot holds one symbol's circular buffers. window_size_seconds slots
// of (timestamp, price) and (timestamp, cumulative volume); head advances by
// one slot per new wall-clock second, overwriting in place for same-second
// updates.
type symbolSlot struct {
	mu sync.Mutex

	timestamps []int64
	prices     []float64
	volumes    []int64

	head  int
	count int
}

// PriceChanges bundles five optional percent changes plus the raw anchor
// price five minutes back.
type PriceChanges struct {
	Chg1m, Chg5m, Chg10m, Chg15m, Chg30m *float64
	Price5mAgo                           *float64
}

// VolumeWindows mirrors the five cumulative-volume deltas.
type VolumeWindows struct {
	Vol1m, Vol5m, Vol10m, Vol15m, Vol30m *int64
}

// Tracker is the owned-by-EventEngine rolling window arena. It is never a
// process-wide singleton: each EventEngine constructs and owns one.
type Tracker struct {
	windowSize int
	maxSymbols int

	mu      sync.RWMutex
	symbols map[string]*symbolSlot
}

// New constructs a tracker pre-sized for maxSymbols, each with windowSize
// circular slots (default 1801, one per second in a 30-minute window).
func New(maxSymbols, windowSize int) *Tracker {
	if windowSize <= 0 {
		windowSize = 1801
	}
	if maxSymbols <= 0 {
		maxSymbols = 10000
	}
	return &Tracker{
		windowSize: windowSize,
		maxSymbols: maxSymbols,
		symbols:    make(map[string]*symbolSlot, maxSymbols),
	}
}

func (t *Tracker) getOrCreate(symbol string) (*symbolSlot, error) {
	t.mu.RLock()
	s, ok := t.symbols[symbol]
	t.mu.RUnlock()
	if ok {
		return s, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.symbols[symbol]; ok {
		return s, nil
	}
	if len(t.symbols) >= t.maxSymbols {
		return nil, fmt.Errorf("rollingwindow: max_symbols %d exceeded, refusing %s", t.maxSymbols, symbol)
	}
	s = &symbolSlot{
		timestamps: make([]int64, t.windowSize),
		prices:     make([]float64, t.windowSize),
		volumes:    make([]int64, t.windowSize),
	}
	t.symbols[symbol] = s
	return s, nil
}

// Update upserts the sample for the current second. It fails silently when
// max_symbols is exceeded — the refusal shows only as a false return, and
// the tracker itself never panics or blocks. Returns whether a new
// second was appended, as opposed to an intra-second overwrite.
func (t *Tracker) Update(symbol string, price float64, cumulativeVolume int64, tsSeconds int64) bool {
	s, err := t.getOrCreate(symbol)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count > 0 && s.timestamps[s.head] == tsSeconds {
		s.prices[s.head] = price
		s.volumes[s.head] = cumulativeVolume
		return false
	}

	next := s.head
	if s.count > 0 {
		next = (s.head + 1) % len(s.timestamps)
	}
	s.head = next
	s.timestamps[next] = tsSeconds
	s.prices[next] = price
	s.volumes[next] = cumulativeVolume
	if s.count < len(s.timestamps) {
		s.count++
	}
	return true
}

// PriceChanges returns the five percent-change lookbacks plus the raw
// five-minute-ago anchor price. Every value is nil when unresolved (no
// history, or the freshness guard trips).
func (t *Tracker) PriceChanges(symbol string) PriceChanges {
	t.mu.RLock()
	s, ok := t.symbols[symbol]
	t.mu.RUnlock()
	if !ok {
		return PriceChanges{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count < 2 {
		return PriceChanges{}
	}

	nowTS := s.timestamps[s.head]
	nowPrice := s.prices[s.head]

	var out PriceChanges
	dests := []**float64{&out.Chg1m, &out.Chg5m, &out.Chg10m, &out.Chg15m, &out.Chg30m}

	for i, minutes := range lookbackMinutes {
		targetTS := nowTS - int64(minutes*60)
		pastPrice, found := s.walkBackward(targetTS, minutes)
		if !found {
			continue
		}
		if pastPrice != 0 {
			pct := ((nowPrice - pastPrice) / pastPrice) * 100
			*dests[i] = roundPtr(pct, 4)
		}
		if minutes == 5 {
			v := pastPrice
			out.Price5mAgo = &v
		}
	}
	return out
}

// VolumeWindows returns the five cumulative-volume deltas, same freshness
// guard semantics as PriceChanges.
func (t *Tracker) VolumeWindows(symbol string) VolumeWindows {
	t.mu.RLock()
	s, ok := t.symbols[symbol]
	t.mu.RUnlock()
	if !ok {
		return VolumeWindows{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count < 2 {
		return VolumeWindows{}
	}

	nowTS := s.timestamps[s.head]
	nowVol := s.volumes[s.head]

	var out VolumeWindows
	dests := []**int64{&out.Vol1m, &out.Vol5m, &out.Vol10m, &out.Vol15m, &out.Vol30m}

	for i, minutes := range lookbackMinutes {
		targetTS := nowTS - int64(minutes*60)
		pastVol, found := s.walkBackwardVolume(targetTS, minutes)
		if !found {
			continue
		}
		delta := nowVol - pastVol
		*dests[i] = &delta
	}
	return out
}

// walkBackward scans from head toward tail looking for the first sample at
// or before targetTS, applying the freshness guard: if the resolved anchor
// is farther than minutes*60+15s from "now", the lookback is unavailable.
func (s *symbolSlot) walkBackward(targetTS int64, minutes int) (float64, bool) {
	n := len(s.timestamps)
	maxAge := int64(minutes*60 + freshnessGraceSeconds)
	nowTS := s.timestamps[s.head]

	for i := 1; i < s.count; i++ {
		idx := (s.head - i + n) % n
		ts := s.timestamps[idx]
		if ts <= targetTS {
			if nowTS-ts > maxAge {
				return 0, false
			}
			return s.prices[idx], true
		}
	}
	return 0, false
}

func (s *symbolSlot) walkBackwardVolume(targetTS int64, minutes int) (int64, bool) {
	n := len(s.timestamps)
	maxAge := int64(minutes*60 + freshnessGraceSeconds)
	nowTS := s.timestamps[s.head]

	for i := 1; i < s.count; i++ {
		idx := (s.head - i + n) % n
		ts := s.timestamps[idx]
		if ts <= targetTS {
			if nowTS-ts > maxAge {
				return 0, false
			}
			return s.volumes[idx], true
		}
	}
	return 0, false
}

// ClearSymbol zeroes a single symbol's buffers, used by the new-trading-day
// reset. Returns false if the symbol was never tracked.
func (t *Tracker) ClearSymbol(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.symbols[symbol]
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.head, s.count = 0, 0
	return true
}

// ClearAll resets every tracked symbol's buffers without dropping the
// symbol-to-slot mapping.
func (t *Tracker) ClearAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.symbols {
		s.mu.Lock()
		s.head, s.count = 0, 0
		s.mu.Unlock()
		n++
	}
	return n
}

// Stats reports tracked-symbol count and configured capacity for
// operator dashboards.
func (t *Tracker) Stats() (tracked, capacity int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.symbols), t.maxSymbols
}

func roundPtr(v float64, decimals int) *float64 {
	mult := 1.0
	for i := 0; i < decimals; i++ {
		mult *= 10
	}
	r := float64(int64(v*mult+signOf(v)*0.5)) / mult
	return &r
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
