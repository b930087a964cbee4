package writer

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestBufferDropsOldestOnOverflow(t *testing.T) {
	w := New(nil, Config{MaxBuffer: 100})

	for i := 0; i < 200; i++ {
		w.Buffer(event.New(event.TypeNewHigh, "r", "TSLA", time.Now(), float64(i)))
	}

	buffered, dropped, _ := w.Stats()
	assert.Equal(t, 100, buffered)
	assert.Equal(t, int64(100), dropped)

	w.mu.Lock()
	oldest := w.buffer[0]
	w.mu.Unlock()
	assert.Equal(t, 100.0, oldest.Price)
}

func TestDrainRespectsMaxBatch(t *testing.T) {
	w := New(nil, Config{MaxBuffer: 1000, MaxBatch: 10})
	for i := 0; i < 25; i++ {
		w.Buffer(event.New(event.TypeNewHigh, "r", "TSLA", time.Now(), float64(i)))
	}

	first := w.drain()
	assert.Len(t, first, 10)

	buffered, _, _ := w.Stats()
	assert.Equal(t, 15, buffered)
}

func TestDrainEmptyReturnsNil(t *testing.T) {
	w := New(nil, Config{})
	assert.Nil(t, w.drain())
}

func TestNewAppliesDefaults(t *testing.T) {
	w := New(nil, Config{})
	assert.Equal(t, 5*time.Second, w.flushInterval)
	assert.Equal(t, 50000, w.maxBuffer)
	assert.Equal(t, 10000, w.maxBatch)
}

func TestRunFlushesOnCancellation(t *testing.T) {
	w := New(nil, Config{FlushInterval: time.Hour, MaxBuffer: 10})
	w.Buffer(event.New(event.TypeNewHigh, "r", "TSLA", time.Now(), 1))

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		w.Run(done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after done was closed")
	}
}
