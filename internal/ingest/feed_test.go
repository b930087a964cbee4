package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestFeedDeliversEnvelopeToHandler(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"symbol":"TSLA","data":{"lastTrade":{"p":250.5}}}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	var mu sync.Mutex
	var gotSymbol string

	f := New(wsURL, func(symbol string, bag map[string]interface{}) {
		mu.Lock()
		gotSymbol = symbol
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.Start(ctx))
	defer f.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotSymbol == "TSLA"
	}, time.Second, 10*time.Millisecond)
}

func TestProcessDropsMalformedEnvelope(t *testing.T) {
	called := false
	f := New("", func(symbol string, bag map[string]interface{}) { called = true })
	f.process([]byte(`not json`))
	require.False(t, called)
}

func TestProcessDropsEmptySymbol(t *testing.T) {
	called := false
	f := New("", func(symbol string, bag map[string]interface{}) { called = true })
	f.process([]byte(`{"symbol":"","data":{}}`))
	require.False(t, called)
}
