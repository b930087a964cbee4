package svc

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/trigger"
	"github.com/stretchr/testify/assert"
)

func TestDeliverAlertDoesNotPanicWithoutTransport(t *testing.T) {
	rec := event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Now(), 1.0)
	assert.NotPanics(t, func() {
		deliverAlert("u1", rec, trigger.Config{TriggerID: "t1"})
	})
}

func TestStopIsSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, Stop)
}
