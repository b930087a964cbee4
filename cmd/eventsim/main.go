// Command eventsim is a manual harness that replays synthetic snapshot
// deltas through the detector/engine pipeline without an upstream feed or
// database, for exercising detector behavior by hand.
//
// A standalone, manually run integration harness that logs each stage's
// result rather than asserting against it.
package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/marketflux/eventengine/internal/detector"
	"github.com/marketflux/eventengine/internal/engine"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/rollingwindow"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("=== eventengine simulation harness ===")

	registry := detector.BuildDefaultRegistry()
	cache := tickerstate.NewCache(1000, 5*time.Minute)
	tracker := rollingwindow.New(1000, 1801)

	eng := engine.New(engine.Config{
		Registry: registry,
		Cache:    cache,
		Tracker:  tracker,
		Sinks: engine.Sinks{
			Broadcast: func(rec *event.Record) {
				log.Printf("EVENT %-24s %-6s price=%.2f rule=%s", rec.EventType, rec.Symbol, rec.Price, rec.RuleID)
			},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eng.Start(ctx)
	defer eng.Stop()

	log.Println("replaying synthetic TSLA ticks for 30s...")
	replaySyntheticTicks(ctx, eng, "TSLA", 250.0)

	<-ctx.Done()
	log.Println("simulation complete.")
}

// replaySyntheticTicks feeds a symbol a slow random walk with an occasional
// upward spike, enough to exercise level-cross and new-high detectors.
func replaySyntheticTicks(ctx context.Context, eng *engine.Engine, symbol string, startPrice float64) {
	price := startPrice
	vol := int64(0)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price += (rand.Float64() - 0.48) * 0.5
			vol += int64(rand.Intn(5000))

			st := &tickerstate.State{
				Symbol:           symbol,
				Timestamp:        time.Now(),
				Price:            price,
				CumulativeVolume: vol,
				Open:             startPrice,
				Session:          tickerstate.SessionMarketOpen,
				VWAP:             startPrice,
			}
			eng.Submit(engine.Update{Symbol: symbol, State: st})
		}
	}
}
