package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := h.Subscribe()
	defer h.Unsubscribe(c)
	time.Sleep(5 * time.Millisecond)

	rec := event.New(event.TypeNewHigh, "event:system:new_high", "TSLA", time.Now(), 250.5)
	h.Publish(rec)

	select {
	case b := <-c.Recv():
		var msg Message
		require.NoError(t, json.Unmarshal(b, &msg))
		assert.Equal(t, "event", msg.Type)
		assert.Equal(t, "TSLA", msg.Data.Symbol)
	case <-time.After(time.Second):
		t.Fatal("expected message delivery within timeout")
	}
}

func TestSlowSubscriberDropsRatherThanBlocks(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := h.Subscribe()
	defer h.Unsubscribe(c)
	time.Sleep(5 * time.Millisecond)

	// Never drain c.Recv(): flood past its buffer and confirm Publish
	// returns promptly instead of blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < clientSendBuffer*4; i++ {
			h.Publish(event.New(event.TypeNewHigh, "r", "SYM", time.Now(), 1))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish must never block on a slow subscriber")
	}

	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, h.Dropped(), int64(0))
}
