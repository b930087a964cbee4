// Package broadcast implements the non-blocking event fan-out bus. A full
// subscriber mailbox causes that subscriber to drop messages, never causes
// the engine to stall.
//
// Built around a buffered-channel select/default drop pattern for fan-out
// to many subscribers, carrying event.Record instead of raw market-data
// messages.
package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/marketflux/eventengine/internal/event"
)

const clientSendBuffer = 256

// Message is the wire envelope published to every subscriber.
type Message struct {
	Type string          `json:"type"`
	Data *event.Record   `json:"data"`
}

// Client is one subscriber's buffered mailbox. The underlying transport
// (a websocket connection, in api.handleEventStream) is owned and read
// from by the caller; Client only carries the outbound queue.
type Client struct {
	send chan []byte
}

// Hub owns the subscriber registry and the broadcast loop.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]bool

	dropped int64
}

// NewHub constructs a Hub; call Run in its own goroutine to start the
// register/unregister/broadcast select loop.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 1024),
		clients:    make(map[*Client]bool),
	}
}

// Run is the hub's event loop. It has no explicit ctx parameter and returns
// only if its register or broadcast channel is closed; nothing closes them,
// so the loop runs for the life of the process.
func (h *Hub) Run() {
	for {
		select {
		case c, ok := <-h.register:
			if !ok {
				return
			}
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Subscriber mailbox full: drop rather than block the
					// publishing path. The slow client is disconnected on
					// its next write failure, not forced closed here.
					h.dropped++
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish fans a fired event out to every subscriber. Never blocks: a
// marshal failure is logged and the event is skipped.
func (h *Hub) Publish(rec *event.Record) {
	b, err := json.Marshal(Message{Type: "event", Data: rec})
	if err != nil {
		log.Printf("broadcast: marshal failed: %v", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		log.Println("broadcast: hub buffer full, dropping event")
	}
}

// Subscribe registers a new client and returns its receive channel.
func (h *Hub) Subscribe() *Client {
	c := &Client{send: make(chan []byte, clientSendBuffer)}
	h.register <- c
	return c
}

// Unsubscribe removes a client from the registry.
func (h *Hub) Unsubscribe(c *Client) {
	h.unregister <- c
}

// Dropped reports the cumulative number of messages dropped to slow
// subscribers or a full hub buffer.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Recv exposes the client's receive channel for a websocket write pump.
func (c *Client) Recv() <-chan []byte { return c.send }
