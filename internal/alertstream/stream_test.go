package alertstream

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesEventFields(t *testing.T) {
	rec := event.New(event.TypeVWAPCrossUp, "vwap_cross", "TSLA", time.Now(), 212.5)
	got := Render("{{.Symbol}} crossed VWAP at {{.Price}}", rec)
	assert.Equal(t, "TSLA crossed VWAP at 212.5", got)
}

func TestRenderFallsBackToDefaultTemplateWhenEmpty(t *testing.T) {
	rec := event.New(event.TypeNewHigh, "new_high", "AAPL", time.Now(), 190)
	got := Render("", rec)
	assert.Equal(t, "AAPL fired NEW_HIGH at 190", got)
}

func TestRenderFallsBackToRawTextOnMalformedTemplate(t *testing.T) {
	rec := event.New(event.TypeNewHigh, "new_high", "AAPL", time.Now(), 190)
	got := Render("{{.Symbol unterminated", rec)
	assert.Equal(t, "{{.Symbol unterminated", got)
}

func TestPublishCapsStreamAtCapacity(t *testing.T) {
	store := NewStore()
	for i := 0; i < capacity+10; i++ {
		store.Publish("u1", Message{TriggerID: "t1", Text: "x", FiredAt: time.Now()})
	}
	require.Len(t, store.Recent("u1", 0), capacity)
}

func TestPublishIsolatesPerUser(t *testing.T) {
	store := NewStore()
	store.Publish("u1", Message{TriggerID: "t1", Text: "u1-alert"})
	store.Publish("u2", Message{TriggerID: "t2", Text: "u2-alert"})

	require.Len(t, store.Recent("u1", 0), 1)
	assert.Equal(t, "u1-alert", store.Recent("u1", 0)[0].Text)
	require.Len(t, store.Recent("u2", 0), 1)
	assert.Equal(t, "u2-alert", store.Recent("u2", 0)[0].Text)
}

func TestRecentReturnsNewestLast(t *testing.T) {
	store := NewStore()
	store.Publish("u1", Message{Text: "first"})
	store.Publish("u1", Message{Text: "second"})
	store.Publish("u1", Message{Text: "third"})

	got := store.Recent("u1", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Text)
	assert.Equal(t, "third", got[1].Text)
}
