package trigger

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
)

func baseEvent() *event.Record {
	rec := event.New(event.TypeRVOLSpike, "rvol_spike", "TSLA", time.Unix(0, 0), 250.0)
	rec.RVOL = event.PtrFloat(6.0)
	rec.Volume = event.PtrInt(1_000_000)
	return rec
}

func TestValidateRejectsMissingIDs(t *testing.T) {
	assert.Error(t, Config{}.Validate())
}

func TestValidateRejectsWorkflowWithoutID(t *testing.T) {
	cfg := Config{TriggerID: "t1", UserID: "u1", Action: ActionWorkflow}
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsWellFormedAlert(t *testing.T) {
	cfg := Config{TriggerID: "t1", UserID: "u1", Action: ActionAlert}
	assert.NoError(t, cfg.Validate())
}

func TestMatchesAndCombinesAllConditions(t *testing.T) {
	minRVOL := 5.0
	cfg := Config{
		Enabled:       true,
		AllowedTypes:  []event.Type{event.TypeRVOLSpike},
		SymbolInclude: []string{"TSLA"},
		MinRVOL:       &minRVOL,
	}
	assert.True(t, cfg.matches(baseEvent(), time.Unix(0, 0)))
}

func TestMatchesFailsOnDisallowedType(t *testing.T) {
	cfg := Config{Enabled: true, AllowedTypes: []event.Type{event.TypeNewHigh}}
	assert.False(t, cfg.matches(baseEvent(), time.Unix(0, 0)))
}

func TestMatchesFailsOnSymbolExclude(t *testing.T) {
	cfg := Config{Enabled: true, SymbolExclude: []string{"TSLA"}}
	assert.False(t, cfg.matches(baseEvent(), time.Unix(0, 0)))
}

func TestMatchesFailsBelowMinRVOL(t *testing.T) {
	minRVOL := 10.0
	cfg := Config{Enabled: true, MinRVOL: &minRVOL}
	assert.False(t, cfg.matches(baseEvent(), time.Unix(0, 0)))
}

func TestMatchesFailsWhenDisabled(t *testing.T) {
	cfg := Config{Enabled: false}
	assert.False(t, cfg.matches(baseEvent(), time.Unix(0, 0)))
}

// Scenario S5: cooldown 300s, fire at t=0, second event at t=120 suppressed.
func TestMatchesCooldownSuppressesSecondFire(t *testing.T) {
	cfg := Config{
		Enabled:         true,
		AllowedTypes:    []event.Type{event.TypeRVOLSpike},
		SymbolInclude:   []string{"TSLA"},
		CooldownSeconds: 300,
		LastFired:       time.Unix(0, 0),
	}
	assert.False(t, cfg.matches(baseEvent(), time.Unix(120, 0)))
	assert.True(t, cfg.matches(baseEvent(), time.Unix(301, 0)))
}
