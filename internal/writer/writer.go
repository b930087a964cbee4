// Package writer implements the EventWriter: non-blocking, at-most-once
// batch persistence of events to the time-series store, with a fixed
// flush interval (default 5s), a bounded in-memory queue (default 50000),
// and a per-flush batch cap (default 10000).
package writer

import (
	"log"
	"sync"
	"time"

	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/notify"
)

// Writer buffers events in memory and flushes them on a fixed interval.
type Writer struct {
	db       *dbstore.DB
	notifier *notify.Notifier

	flushInterval time.Duration
	maxBuffer     int
	maxBatch      int

	mu      sync.Mutex
	buffer  []*event.Record
	dropped int64

	insertErrors int64
}

// Config bundles the writer's tunables.
type Config struct {
	FlushInterval time.Duration
	MaxBuffer     int
	MaxBatch      int
	Notifier      *notify.Notifier
}

// New constructs a Writer bound to db.
func New(db *dbstore.DB, cfg Config) *Writer {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = 50000
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 10000
	}
	return &Writer{
		db:            db,
		notifier:      cfg.Notifier,
		flushInterval: cfg.FlushInterval,
		maxBuffer:     cfg.MaxBuffer,
		maxBatch:      cfg.MaxBatch,
	}
}

// Buffer appends one event to the in-memory queue. If the queue exceeds
// maxBuffer, the oldest entries are dropped and a counter is incremented;
// real-time ingestion is never blocked by this call.
func (w *Writer) Buffer(rec *event.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = append(w.buffer, rec)
	if overflow := len(w.buffer) - w.maxBuffer; overflow > 0 {
		w.buffer = w.buffer[overflow:]
		w.dropped += int64(overflow)
		w.notifyBacklog(w.dropped)
	}
}

// notifyBacklog fires the ops alert for a buffer overflow in a separate
// goroutine, never blocking the ingestion path on a Slack round trip.
func (w *Writer) notifyBacklog(droppedTotal int64) {
	if w.notifier == nil {
		return
	}
	go func() {
		if err := w.notifier.WriterBacklog(droppedTotal); err != nil {
			log.Printf("writer: notify backlog: %v", err)
		}
	}()
}

// Run loops until ctx is cancelled, flushing every flushInterval. On
// cancellation it performs one final flush before returning.
func (w *Writer) Run(done <-chan struct{}) {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			w.flush()
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Writer) flush() {
	batch := w.drain()
	if len(batch) == 0 {
		return
	}
	if err := dbstore.InsertEventBatch(w.db, batch); err != nil {
		w.mu.Lock()
		w.insertErrors++
		w.mu.Unlock()
		log.Printf("writer: batch insert failed, %d events dropped at storage layer: %v", len(batch), err)
		return
	}
	if len(batch) > 100 {
		log.Printf("writer: persisted batch of %d events", len(batch))
	}
}

func (w *Writer) drain() []*event.Record {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.buffer)
	if n > w.maxBatch {
		n = w.maxBatch
	}
	if n == 0 {
		return nil
	}
	batch := w.buffer[:n]
	w.buffer = w.buffer[n:]
	return batch
}

// Stats reports buffered-row count, cumulative dropped-overflow count, and
// cumulative insert-failure count for operator dashboards.
func (w *Writer) Stats() (buffered int, dropped int64, insertErrors int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer), w.dropped, w.insertErrors
}
