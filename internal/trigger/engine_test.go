package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alertCollector struct {
	mu   sync.Mutex
	seen []string
}

func (c *alertCollector) sink(userID string, rec *event.Record, cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, userID+"|"+cfg.TriggerID)
}

func (c *alertCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestEngineDispatchesMatchingAlertTrigger(t *testing.T) {
	collector := &alertCollector{}
	e := New(EngineConfig{AlertSink: collector.sink})

	cfg := Config{
		TriggerID:     "t1",
		UserID:        "u1",
		Enabled:       true,
		Action:        ActionAlert,
		AllowedTypes:  []event.Type{event.TypeRVOLSpike},
		SymbolInclude: []string{"TSLA"},
	}
	e.mu.Lock()
	e.insertLocked(cfg)
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)
	defer e.Stop()

	rec := event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Now(), 1.0)
	e.Submit(rec)

	require.Eventually(t, func() bool { return collector.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEngineSkipsNonMatchingSymbol(t *testing.T) {
	collector := &alertCollector{}
	e := New(EngineConfig{AlertSink: collector.sink})

	cfg := Config{
		TriggerID:     "t1",
		UserID:        "u1",
		Enabled:       true,
		Action:        ActionAlert,
		SymbolInclude: []string{"AAPL"},
	}
	e.mu.Lock()
	e.insertLocked(cfg)
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)
	defer e.Stop()

	rec := event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Now(), 1.0)
	e.Submit(rec)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, collector.count())
}

func TestInsertLockedRemovesDisabledTrigger(t *testing.T) {
	e := New(EngineConfig{})
	cfg := Config{TriggerID: "t1", UserID: "u1", Enabled: true}
	e.insertLocked(cfg)
	assert.Len(t, e.cache["u1"], 1)

	cfg.Enabled = false
	e.insertLocked(cfg)
	assert.Len(t, e.cache["u1"], 0)
}

// Scenario S5 at the engine level: cooldown suppresses a second dispatch
// within the configured window.
func TestEngineCooldownSuppressesSecondDispatch(t *testing.T) {
	collector := &alertCollector{}
	e := New(EngineConfig{AlertSink: collector.sink})

	cfg := Config{
		TriggerID:       "t1",
		UserID:          "u1",
		Enabled:         true,
		Action:          ActionAlert,
		AllowedTypes:    []event.Type{event.TypeRVOLSpike},
		SymbolInclude:   []string{"TSLA"},
		CooldownSeconds: 300,
	}
	e.insertLocked(cfg)

	ctx := context.Background()
	e.evaluate(ctx, event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Unix(0, 0), 1.0))
	require.Eventually(t, func() bool { return collector.count() == 1 }, time.Second, 5*time.Millisecond)

	// Second event 120s later: still within cooldown since evaluate reads
	// "now" internally via time.Now(), so simulate by checking the cached
	// config's LastFired was advanced and directly exercise matches().
	e.mu.RLock()
	updated := e.cache["u1"]["t1"]
	e.mu.RUnlock()
	assert.False(t, updated.LastFired.IsZero())
	assert.False(t, updated.matches(event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Now(), 1.0), updated.LastFired.Add(120*time.Second)))
}
