// Package engine implements the EventEngine: per-symbol sharded dispatch of
// detectors, global deduplication, per-rule cooldowns, and fan-out to the
// broadcast bus, the writer, and the trigger engine.
//
// Built around ticker-driven goroutines with a ctx/cancel/wg shutdown
// shape, and central wiring of ingestion -> cache -> persistence ->
// broadcast.
package engine

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/marketflux/eventengine/internal/detector"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/notify"
	"github.com/marketflux/eventengine/internal/rollingwindow"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// Sinks are the three fan-out destinations every surviving event reaches.
// Each is non-blocking from the engine's perspective.
type Sinks struct {
	Broadcast func(*event.Record)
	Writer    func(*event.Record)
	Trigger   func(*event.Record)
}

// Update is one inbound normalized snapshot delta for a single symbol.
type Update struct {
	Symbol string
	State  *tickerstate.State
}

// Engine is the EventEngine. The rolling window tracker and state cache are
// owned by the engine instance, not process-wide singletons — tests
// construct engines with fresh arenas.
type Engine struct {
	registry *detector.Registry
	cache    *tickerstate.Cache
	tracker  *rollingwindow.Tracker
	sinks    Sinks
	notifier *notify.Notifier

	workerCount  int
	dedupWindow  time.Duration
	defaultCooldown time.Duration

	inbound chan Update

	mu           sync.Mutex
	lastFireTS   map[string]time.Time // "symbol|rule_id" -> last fire time, for cooldown
	dedupBuckets map[string]time.Time // "symbol|rule_id|bucket" -> last suppressed time

	detectorErrors int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config bundles engine construction parameters.
type Config struct {
	Registry        *detector.Registry
	Cache           *tickerstate.Cache
	Tracker         *rollingwindow.Tracker
	Sinks           Sinks
	Notifier        *notify.Notifier
	WorkerCount     int
	DedupWindow     time.Duration
	DefaultCooldown time.Duration
	InboundBuffer   int
}

// New constructs an Engine. Workers are not started until Start is called.
func New(cfg Config) *Engine {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 32
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 2 * time.Second
	}
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = 10000
	}
	return &Engine{
		registry:        cfg.Registry,
		cache:           cfg.Cache,
		tracker:         cfg.Tracker,
		sinks:           cfg.Sinks,
		notifier:        cfg.Notifier,
		workerCount:     cfg.WorkerCount,
		dedupWindow:     cfg.DedupWindow,
		defaultCooldown: cfg.DefaultCooldown,
		inbound:         make(chan Update, cfg.InboundBuffer),
		lastFireTS:      make(map[string]time.Time),
		dedupBuckets:    make(map[string]time.Time),
	}
}

// Submit enqueues one update for dispatch. It blocks for as long as the
// inbound channel is full: the channel is sized generously, and a
// persistently full channel means the worker pool is saturated. The send is
// a plain buffered-channel send rather than a select/drop, so no ingestion
// tick is silently lost at this boundary.
func (e *Engine) Submit(u Update) {
	e.inbound <- u
}

// Start launches the sharded worker pool: a stable hash of symbol selects
// the worker, guaranteeing per-symbol serialization while symbols process
// in parallel across workers.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	shardChans := make([]chan Update, e.workerCount)
	for i := range shardChans {
		shardChans[i] = make(chan Update, 256)
	}

	e.wg.Add(1)
	go e.dispatchLoop(ctx, shardChans)

	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.worker(ctx, shardChans[i])
	}

	e.wg.Add(1)
	go e.sweepLoop(ctx)

	log.Printf("engine: started %d workers", e.workerCount)
}

// Stop cascades a graceful shutdown: stop accepting new inbound updates,
// let workers drain their current symbol, then return once everything has
// exited. The writer/trigger/broadcast final-flush stages are each sink's
// own responsibility.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	log.Println("engine: stopped")
}

func (e *Engine) dispatchLoop(ctx context.Context, shardChans []chan Update) {
	defer e.wg.Done()
	defer func() {
		for _, ch := range shardChans {
			close(ch)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-e.inbound:
			if !ok {
				return
			}
			shard := shardChans[hashSymbol(u.Symbol)%uint32(len(shardChans))]
			select {
			case shard <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (e *Engine) worker(ctx context.Context, in chan Update) {
	defer e.wg.Done()
	for u := range in {
		e.processOne(u)
		select {
		case <-ctx.Done():
		default:
		}
	}
}

// processOne is the per-symbol serialized region: fetch prior state,
// dispatch detectors, capture context, apply dedup/cooldown, publish the new
// state, and fan out survivors.
func (e *Engine) processOne(u Update) {
	prev, _ := e.cache.Get(u.Symbol)

	// Drop silently if this update is older than the cached state — out of
	// order delivery must never regress a symbol's state.
	if prev != nil && u.State.Timestamp.Before(prev.Timestamp) {
		return
	}

	e.tracker.Update(u.Symbol, u.State.Price, u.State.CumulativeVolume, u.State.Timestamp.Unix())
	pc := e.tracker.PriceChanges(u.Symbol)
	u.State.Chg1m, u.State.Chg5m, u.State.Chg10m, u.State.Chg15m, u.State.Chg30m =
		pc.Chg1m, pc.Chg5m, pc.Chg10m, pc.Chg15m, pc.Chg30m
	vw := e.tracker.VolumeWindows(u.Symbol)
	u.State.Vol1m, u.State.Vol5m, u.State.Vol10m, u.State.Vol15m, u.State.Vol30m =
		vw.Vol1m, vw.Vol5m, vw.Vol10m, vw.Vol15m, vw.Vol30m

	if prev != nil && prev.Session != tickerstate.SessionPreMarket && u.State.Session == tickerstate.SessionPreMarket {
		e.registry.ResetSession(u.Symbol)
	}

	events := e.registry.EvaluateAll(u.Symbol, prev, u.State, e.onDetectorError)

	survivors := e.applyDedupAndCooldown(u.Symbol, u.State.Timestamp, events)

	if err := e.cache.Put(u.State); err != nil {
		log.Printf("engine: cache refused new symbol: %v", err)
		e.notifyCacheCapacityRefused(u.State.Symbol)
		return
	}

	for _, rec := range survivors {
		if e.sinks.Broadcast != nil {
			e.sinks.Broadcast(rec.WithoutSnapshot())
		}
		if e.sinks.Writer != nil {
			e.sinks.Writer(rec)
		}
		if e.sinks.Trigger != nil {
			e.sinks.Trigger(rec)
		}
	}
}

// applyDedupAndCooldown enforces the (symbol, rule_id, event_bucket)
// suppression window and the per-rule cooldown floor.
func (e *Engine) applyDedupAndCooldown(symbol string, now time.Time, events []*event.Record) []*event.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*event.Record
	for _, rec := range events {
		bucketKey := symbol + "|" + rec.RuleID + "|" + string(rec.EventType)
		if lastSeen, ok := e.dedupBuckets[bucketKey]; ok && now.Sub(lastSeen) < e.dedupWindow {
			continue
		}
		e.dedupBuckets[bucketKey] = now

		cooldownKey := symbol + "|" + rec.RuleID
		cooldown := e.defaultCooldown
		if d, ok := e.registry.DefaultCooldown(rec.RuleID); ok && d > cooldown {
			cooldown = d
		}
		if lastFire, ok := e.lastFireTS[cooldownKey]; ok && cooldown > 0 && now.Sub(lastFire) < cooldown {
			continue
		}
		e.lastFireTS[cooldownKey] = now

		out = append(out, rec)
	}
	return out
}

func (e *Engine) onDetectorError(ruleID string, err interface{}) {
	e.mu.Lock()
	e.detectorErrors++
	e.mu.Unlock()
	log.Printf("engine: detector %s failed: %v", ruleID, err)

	if e.notifier == nil {
		return
	}
	go func() {
		if notifyErr := e.notifier.DetectorFailure(ruleID, err); notifyErr != nil {
			log.Printf("engine: notify detector failure: %v", notifyErr)
		}
	}()
}

// notifyCacheCapacityRefused fires the ops alert for a cache capacity
// refusal in a separate goroutine, never blocking the symbol's serialized
// processing region on a Slack round trip.
func (e *Engine) notifyCacheCapacityRefused(symbol string) {
	if e.notifier == nil {
		return
	}
	max := e.cache.MaxSymbols()
	go func() {
		if err := e.notifier.CacheCapacityRefused(symbol, max); err != nil {
			log.Printf("engine: notify cache capacity refused: %v", err)
		}
	}()
}

// DetectorErrorCount reports the running count of isolated detector
// failures, for operator dashboards.
func (e *Engine) DetectorErrorCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detectorErrors
}

func (e *Engine) sweepLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := e.cache.Sweep(time.Now())
			if removed > 0 {
				log.Printf("engine: cache sweep evicted %d idle symbols", removed)
			}
		}
	}
}

func hashSymbol(symbol string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum32()
}
