package trigger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/orchestrator"
)

// AlertSink receives fired alert messages for delivery on a per-user
// stream. The trigger engine does not own transport; it only decides what
// to send.
type AlertSink func(userID string, rec *event.Record, cfg Config)

// Engine is the TriggerEngine: a nested user_id -> trigger_id cache,
// evaluated against every inbound event.
type Engine struct {
	db           *dbstore.DB
	orchestrator *orchestrator.Client
	alertSink    AlertSink

	mu    sync.RWMutex
	cache map[string]map[string]Config // user_id -> trigger_id -> config

	inbound chan *event.Record

	dispatchErrors int64
	wg             sync.WaitGroup
}

// EngineConfig bundles engine construction dependencies.
type EngineConfig struct {
	DB            *dbstore.DB
	Orchestrator  *orchestrator.Client
	AlertSink     AlertSink
	InboundBuffer int
}

// New constructs a Engine with an empty cache. Call LoadAll to hydrate from
// storage before Start.
func New(cfg EngineConfig) *Engine {
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = 10000
	}
	return &Engine{
		db:           cfg.DB,
		orchestrator: cfg.Orchestrator,
		alertSink:    cfg.AlertSink,
		cache:        make(map[string]map[string]Config),
		inbound:      make(chan *event.Record, cfg.InboundBuffer),
	}
}

// LoadAll hydrates the in-memory cache from every persisted trigger row at
// startup. Disabled triggers are loaded but immediately excluded from
// evaluation: a disabled config stays persisted but is removed from the
// evaluation cache.
func (e *Engine) LoadAll() error {
	rows, err := dbstore.LoadAllTriggers(e.db)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range rows {
		cfg, decodeErr := decodeConfig(row)
		if decodeErr != nil {
			log.Printf("trigger: skipping undecodable row %s/%s: %v", row.UserID, row.TriggerID, decodeErr)
			continue
		}
		e.insertLocked(cfg)
	}
	return nil
}

// Register validates, persists, and caches a trigger config.
func (e *Engine) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	blob, err := encodeConfig(cfg)
	if err != nil {
		return err
	}
	if err := dbstore.UpsertTrigger(e.db, dbstore.TriggerRow{
		TriggerID:       cfg.TriggerID,
		UserID:          cfg.UserID,
		Name:            cfg.Name,
		Enabled:         cfg.Enabled,
		ConfigJSON:      blob,
		CooldownSeconds: cfg.CooldownSeconds,
	}); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.insertLocked(cfg)
	return nil
}

func (e *Engine) insertLocked(cfg Config) {
	if !cfg.Enabled {
		if byUser, ok := e.cache[cfg.UserID]; ok {
			delete(byUser, cfg.TriggerID)
		}
		return
	}
	byUser, ok := e.cache[cfg.UserID]
	if !ok {
		byUser = make(map[string]Config)
		e.cache[cfg.UserID] = byUser
	}
	byUser[cfg.TriggerID] = cfg
}

// Unregister removes a trigger from both storage and the evaluation cache.
func (e *Engine) Unregister(userID, triggerID string) error {
	if err := dbstore.DeleteTrigger(e.db, userID, triggerID); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if byUser, ok := e.cache[userID]; ok {
		delete(byUser, triggerID)
	}
	return nil
}

// Submit enqueues one surviving event for trigger evaluation. Mirrors the
// engine's broadcast/writer sinks: never blocks the caller; when the inbound
// buffer is full the event is dropped and logged.
func (e *Engine) Submit(rec *event.Record) {
	select {
	case e.inbound <- rec:
	default:
		log.Printf("trigger: inbound buffer full, dropping %s event for %s", rec.EventType, rec.Symbol)
	}
}

// Start launches the consumer loop. The loop exits as soon as ctx is
// cancelled; events still queued in the inbound channel are not evaluated.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-e.inbound:
				if !ok {
					return
				}
				e.evaluate(ctx, rec)
			}
		}
	}()
}

// Stop waits for the consumer loop to exit.
func (e *Engine) Stop() {
	e.wg.Wait()
}

// evaluate matches rec against every user's triggers and dispatches
// matches in parallel: dispatches for different matching triggers run
// concurrently, and a panic in one is recovered and logged without
// affecting the others.
func (e *Engine) evaluate(ctx context.Context, rec *event.Record) {
	now := time.Now()

	e.mu.RLock()
	var matched []Config
	for _, byTrigger := range e.cache {
		for _, cfg := range byTrigger {
			if cfg.matches(rec, now) {
				matched = append(matched, cfg)
			}
		}
	}
	e.mu.RUnlock()

	for _, cfg := range matched {
		go e.dispatch(ctx, cfg, rec, now)
	}
}

func (e *Engine) dispatch(ctx context.Context, cfg Config, rec *event.Record, firedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("trigger: dispatch panic for %s/%s: %v", cfg.UserID, cfg.TriggerID, r)
		}
	}()

	switch cfg.Action {
	case ActionAlert:
		if e.alertSink != nil {
			e.alertSink(cfg.UserID, rec, cfg)
		}
	case ActionWorkflow:
		dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, err := e.orchestrator.Dispatch(dctx, buildWorkflowRequest(cfg, rec))
		if err != nil {
			log.Printf("trigger: workflow dispatch failed for %s/%s: %v", cfg.UserID, cfg.TriggerID, err)
		}
	}

	// last_fired advances regardless of dispatch outcome, preventing storm
	// re-fires; persistence failure here is logged only.
	e.advanceLastFired(cfg.UserID, cfg.TriggerID, firedAt)
}

func (e *Engine) advanceLastFired(userID, triggerID string, firedAt time.Time) {
	e.mu.Lock()
	if byUser, ok := e.cache[userID]; ok {
		if cfg, ok := byUser[triggerID]; ok {
			cfg.LastFired = firedAt
			byUser[triggerID] = cfg
		}
	}
	e.mu.Unlock()

	if e.db == nil {
		return
	}
	if err := dbstore.UpdateLastFired(e.db, userID, triggerID, firedAt); err != nil {
		e.mu.Lock()
		e.dispatchErrors++
		e.mu.Unlock()
		log.Printf("trigger: best-effort last_fired persist failed for %s/%s: %v", userID, triggerID, err)
	}
}

func buildWorkflowRequest(cfg Config, rec *event.Record) orchestrator.WorkflowRequest {
	return orchestrator.WorkflowRequest{
		WorkflowID: cfg.WorkflowID,
		UserID:     cfg.UserID,
		TriggerID:  cfg.TriggerID,
		TriggerContext: map[string]interface{}{
			"event_type": string(rec.EventType),
			"symbol":     rec.Symbol,
			"rule_id":    rec.RuleID,
			"price":      rec.Price,
			"ts":         rec.Timestamp,
		},
	}
}

// DispatchErrorCount reports the running count of failed last_fired
// persistence attempts, for operator dashboards.
func (e *Engine) DispatchErrorCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatchErrors
}
