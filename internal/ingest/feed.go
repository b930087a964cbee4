// Package ingest connects to the upstream market-data feed and produces raw
// per-symbol field bags for snapshot.Ingestor. The feed's own internals are
// out of scope — it is an external collaborator whose output schema is all
// that matters; this package models the receiving half of that contract.
//
// Built around a ctx-scoped Start/Stop shape, combined-stream subscription,
// and a ping keepalive goroutine, generalized to an upstream-agnostic
// snapshot feed rather than a vendor-specific client.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is the wire shape the upstream feed pushes per symbol: a field
// bag keyed by the symbol, matching snapshot.Ingestor.Normalize's input.
type Envelope struct {
	Symbol string                 `json:"symbol"`
	Data   map[string]interface{} `json:"data"`
}

// Handler receives one normalized envelope per inbound message.
type Handler func(symbol string, bag map[string]interface{})

// Feed manages the upstream WebSocket connection and reconnects on drop.
type Feed struct {
	url     string
	handler Handler

	conn   *websocket.Conn
	cancel context.CancelFunc

	reconnectDelay time.Duration
}

// New constructs a Feed against url. handler is invoked from the feed's own
// goroutine for every inbound envelope.
func New(url string, handler Handler) *Feed {
	return &Feed{url: url, handler: handler, reconnectDelay: 2 * time.Second}
}

// Start dials the upstream feed and begins consuming messages. It returns
// once the initial connection succeeds; reconnection on later drops happens
// in the background.
func (f *Feed) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("ingest: dial upstream feed: %w", err)
	}
	f.conn = conn

	go f.readLoop(ctx)
	go f.pingLoop(ctx)

	log.Printf("ingest: connected to upstream feed %s", f.url)
	return nil
}

// Stop tears down the connection and its background goroutines.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	if f.conn != nil {
		f.conn.Close()
	}
}

func (f *Feed) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ingest: upstream feed read error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			f.reconnect(ctx)
			continue
		}

		f.process(message)
	}
}

func (f *Feed) process(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Printf("ingest: malformed envelope dropped: %v", err)
		return
	}
	if env.Symbol == "" {
		return
	}
	f.handler(env.Symbol, env.Data)
}

func (f *Feed) reconnect(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(f.reconnectDelay):
	}

	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		log.Printf("ingest: reconnect failed: %v", err)
		return
	}
	if f.conn != nil {
		f.conn.Close()
	}
	f.conn = conn
	log.Printf("ingest: reconnected to upstream feed %s", f.url)
}

func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f.conn == nil {
				continue
			}
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("ingest: ping failed: %v", err)
			}
		}
	}
}
