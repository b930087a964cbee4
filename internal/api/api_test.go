package api

import (
	"net/http/httptest"
	"testing"

	"github.com/marketflux/eventengine/internal/alertstream"
	"github.com/marketflux/eventengine/internal/broadcast"
	"github.com/marketflux/eventengine/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckReturnsOK(t *testing.T) {
	hub := broadcast.NewHub()
	go hub.Run()

	trig := trigger.New(trigger.EngineConfig{})
	a := New(nil, nil, hub, trig, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCreateTriggerRejectsInvalidConfig(t *testing.T) {
	hub := broadcast.NewHub()
	go hub.Run()
	trig := trigger.New(trigger.EngineConfig{})
	a := New(nil, nil, hub, trig, nil)

	req := httptest.NewRequest("POST", "/triggers", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestListAlertsReturnsPublishedMessages(t *testing.T) {
	hub := broadcast.NewHub()
	go hub.Run()
	trig := trigger.New(trigger.EngineConfig{})
	store := alertstream.NewStore()
	store.Publish("u1", alertstream.Message{TriggerID: "t1", Text: "TSLA fired RVOL_SPIKE at 212.5"})
	a := New(nil, nil, hub, trig, store)

	req := httptest.NewRequest("GET", "/alerts/u1", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestListAlertsWithoutStoreReturnsEmpty(t *testing.T) {
	hub := broadcast.NewHub()
	go hub.Run()
	trig := trigger.New(trigger.EngineConfig{})
	a := New(nil, nil, hub, trig, nil)

	req := httptest.NewRequest("GET", "/alerts/u1", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
