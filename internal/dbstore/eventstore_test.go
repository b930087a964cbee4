package dbstore

import (
	"testing"
	"time"

	"github.com/marketflux/eventengine/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestRowArgsMatchesColumnCount(t *testing.T) {
	rec := event.New(event.TypeNewHigh, "event:system:new_high", "TSLA", time.Now(), 250.5)
	args := rowArgs(rec)
	assert.Len(t, args, len(eventColumns))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "tech", nullIfEmpty("tech"))
}
