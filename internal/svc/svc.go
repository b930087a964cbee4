// Package svc is the process-wide service locator: a sync.Once-guarded
// Init that wires config -> dbstore -> tracker -> cache -> registry ->
// engine -> writer -> trigger engine -> ingest feed -> api, exposed as
// package-level singletons populated by a single Init call.
package svc

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/marketflux/eventengine/internal/alertstream"
	"github.com/marketflux/eventengine/internal/api"
	"github.com/marketflux/eventengine/internal/broadcast"
	"github.com/marketflux/eventengine/internal/config"
	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/detector"
	"github.com/marketflux/eventengine/internal/engine"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/ingest"
	"github.com/marketflux/eventengine/internal/notify"
	"github.com/marketflux/eventengine/internal/orchestrator"
	"github.com/marketflux/eventengine/internal/rollingwindow"
	"github.com/marketflux/eventengine/internal/snapshot"
	"github.com/marketflux/eventengine/internal/tickerstate"
	"github.com/marketflux/eventengine/internal/trigger"
	"github.com/marketflux/eventengine/internal/writer"
)

var (
	once sync.Once

	DB          *dbstore.DB
	Hub         *broadcast.Hub
	Ingestor    *snapshot.Ingestor
	Engine      *engine.Engine
	Writer      *writer.Writer
	Trigger     *trigger.Engine
	Feed        *ingest.Feed
	Notifier    *notify.Notifier
	AlertStream *alertstream.Store
	API         *api.App

	retentionDays int
)

// Init builds every process-wide singleton exactly once and returns the
// first construction error, if any.
func Init(cfg *config.Config) error {
	var initErr error
	once.Do(func() {
		var err error

		DB, err = dbstore.Open(cfg.DBDSN)
		if err != nil {
			initErr = err
			return
		}
		if err = dbstore.EnsureSchema(DB); err != nil {
			initErr = err
			return
		}

		Hub = broadcast.NewHub()
		go Hub.Run()

		Notifier = notify.NewNotifier(cfg)
		AlertStream = alertstream.NewStore()
		retentionDays = cfg.RetentionDays

		Ingestor = snapshot.New()
		tracker := rollingwindow.New(cfg.MaxSymbols, cfg.WindowSizeSeconds)
		cache := tickerstate.NewCache(cfg.MaxSymbols, time.Duration(cfg.CacheIdleTTLS)*time.Second)
		registry := detector.BuildDefaultRegistry()

		Writer = writer.New(DB, writer.Config{
			FlushInterval: time.Duration(cfg.WriterFlushIntervalS) * time.Second,
			MaxBuffer:     cfg.WriterMaxBuffer,
			MaxBatch:      cfg.WriterMaxBatch,
			Notifier:      Notifier,
		})

		orchClient := orchestrator.New(cfg.OrchestratorURL, "")
		Trigger = trigger.New(trigger.EngineConfig{
			DB:           DB,
			Orchestrator: orchClient,
			AlertSink:    deliverAlert,
		})
		if err = Trigger.LoadAll(); err != nil {
			initErr = err
			return
		}

		Engine = engine.New(engine.Config{
			Registry:        registry,
			Cache:           cache,
			Tracker:         tracker,
			Notifier:        Notifier,
			WorkerCount:     cfg.WorkerCount,
			DedupWindow:     time.Duration(cfg.DedupWindowS) * time.Second,
			DefaultCooldown: time.Duration(cfg.DefaultCooldownS) * time.Second,
			Sinks: engine.Sinks{
				Broadcast: Hub.Publish,
				Writer:    Writer.Buffer,
				Trigger:   Trigger.Submit,
			},
		})

		Feed = ingest.New(cfg.UpstreamFeedURL, onUpstreamMessage)

		API = api.New(DB, Engine, Hub, Trigger, AlertStream)
	})
	return initErr
}

// onUpstreamMessage normalizes one raw field bag and submits it to the
// engine; invalid rows are dropped silently.
func onUpstreamMessage(symbol string, bag map[string]interface{}) {
	st, ok := Ingestor.Normalize(symbol, bag)
	if !ok {
		return
	}
	Engine.Submit(engine.Update{Symbol: symbol, State: st})
}

// deliverAlert is the default alert sink bound to the trigger engine's
// AlertSink: it renders the trigger's message template against the firing
// record and appends the result onto the user's bounded alert stream.
func deliverAlert(userID string, rec *event.Record, cfg trigger.Config) {
	text := alertstream.Render(cfg.AlertTemplate, rec)
	log.Printf("trigger: alert fired for user=%s trigger=%s symbol=%s type=%s",
		userID, cfg.TriggerID, rec.Symbol, rec.EventType)

	if AlertStream != nil {
		AlertStream.Publish(userID, alertstream.Message{
			TriggerID: cfg.TriggerID,
			Text:      text,
			FiredAt:   rec.Timestamp,
			Event:     rec,
		})
	}
}

const retentionSweepInterval = 24 * time.Hour

// runRetentionSweep drops rows older than retentionDays once per day until
// ctx is cancelled, implementing the chunk-retention policy at the
// application layer.
func runRetentionSweep(ctx context.Context, db *dbstore.DB, days int) {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -days)
			n, err := dbstore.DeleteOlderThan(db, cutoff)
			if err != nil {
				log.Printf("svc: retention sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("svc: retention sweep dropped %d rows older than %s", n, cutoff.Format(time.RFC3339))
			}
		}
	}
}

// Start launches every background loop. Callers retain ctx ownership and
// call Stop on shutdown.
func Start(ctx context.Context) error {
	Engine.Start(ctx)
	Trigger.Start(ctx)
	go Writer.Run(ctx.Done())
	go runRetentionSweep(ctx, DB, retentionDays)
	return Feed.Start(ctx)
}

// Stop cascades a graceful shutdown: stop ingestion, stop the engine and
// wait for its workers, wait for the trigger consumer to exit, then shut
// down the API server. Stop does not flush the writer itself; Writer.Run
// makes its final flush when the ctx passed to Start is cancelled.
func Stop() {
	if Feed != nil {
		Feed.Stop()
	}
	if Engine != nil {
		Engine.Stop()
	}
	if Trigger != nil {
		Trigger.Stop()
	}
	if API != nil {
		_ = API.Shutdown()
	}
}
