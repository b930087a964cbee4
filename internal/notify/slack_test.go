package notify

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketflux/eventengine/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDisabledNotifierIsNoOp(t *testing.T) {
	n := NewNotifier(&config.Config{})
	assert.False(t, n.Enabled())
	assert.NoError(t, n.DetectorFailure("rule-1", "boom"))
}

func TestEnabledNotifierPosts(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(&config.Config{SlackWebhook: srv.URL})
	assert.True(t, n.Enabled())
	assert.NoError(t, n.WriterBacklog(42))
	assert.True(t, hit)
}

func TestNonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(&config.Config{SlackWebhook: srv.URL})
	assert.Error(t, n.CacheCapacityRefused("TSLA", 10000))
}
