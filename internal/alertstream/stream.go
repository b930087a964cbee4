// Package alertstream implements the per-user alert delivery surface: a
// bounded, append-only stream capped at 1000 entries per user, and
// message-template rendering against a firing event's fields.
package alertstream

import (
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/marketflux/eventengine/internal/event"
)

// capacity bounds each per-user stream; the oldest entry is dropped once a
// publish would exceed it.
const capacity = 1000

const defaultTemplate = "{{.Symbol}} fired {{.EventType}} at {{.Price}}"

// Message is one rendered alert delivered onto a user's stream.
type Message struct {
	TriggerID string
	Text      string
	FiredAt   time.Time
	Event     *event.Record
}

// Store holds a bounded alert stream per user, keyed by user id.
type Store struct {
	mu      sync.Mutex
	streams map[string][]Message
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{streams: make(map[string][]Message)}
}

// Publish appends msg onto userID's stream. Once the stream holds capacity
// entries, the oldest is dropped to make room.
func (s *Store) Publish(userID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := append(s.streams[userID], msg)
	if overflow := len(stream) - capacity; overflow > 0 {
		stream = stream[overflow:]
	}
	s.streams[userID] = stream
}

// Recent returns up to n of userID's most recent messages, oldest first. A
// non-positive or too-large n returns the whole stream.
func (s *Store) Recent(userID string, n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[userID]
	if n <= 0 || n > len(stream) {
		n = len(stream)
	}
	out := make([]Message, n)
	copy(out, stream[len(stream)-n:])
	return out
}

// Render substitutes event fields into tmpl using Go template syntax, e.g.
// "{{.Symbol}} crossed VWAP at {{.Price}}". An empty template falls back to
// a generic default; a malformed template or execution failure falls back
// to the raw template text, so a misconfigured trigger never blocks
// dispatch.
func Render(tmpl string, rec *event.Record) string {
	if tmpl == "" {
		tmpl = defaultTemplate
	}
	t, err := template.New("alert").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf strings.Builder
	if err := t.Execute(&buf, rec); err != nil {
		return tmpl
	}
	return buf.String()
}
