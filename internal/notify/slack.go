// Package notify sends operator-facing ops alerts (detector panics, writer
// buffer overflow, cache refusals) to Slack via an incoming webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marketflux/eventengine/internal/config"
)

// Message is a Slack incoming-webhook payload.
type Message struct {
	Text        string       `json:"text"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one colored Slack attachment block.
type Attachment struct {
	Color     string `json:"color,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

// Notifier posts ops alerts to a configured Slack webhook. With no webhook
// configured, every method is a silent no-op.
type Notifier struct {
	webhookURL string
	http       *http.Client
}

// NewNotifier builds a Notifier from the process config.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		webhookURL: cfg.SlackWebhook,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a Slack webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

func (n *Notifier) send(msg Message) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}

	resp, err := n.http.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// DetectorFailure reports a detector panic or error isolated by the engine.
func (n *Notifier) DetectorFailure(ruleID string, cause interface{}) error {
	return n.send(Message{
		Text:      "Detector isolation triggered",
		Username:  "eventengine",
		IconEmoji: ":warning:",
		Attachments: []Attachment{{
			Color:     "danger",
			Title:     fmt.Sprintf("Detector %s failed", ruleID),
			Text:      fmt.Sprintf("%v", cause),
			Timestamp: time.Now().Unix(),
		}},
	})
}

// WriterBacklog reports the writer dropping events at the buffer boundary.
func (n *Notifier) WriterBacklog(droppedTotal int64) error {
	return n.send(Message{
		Text:      "Event writer overflow",
		Username:  "eventengine",
		IconEmoji: ":floppy_disk:",
		Attachments: []Attachment{{
			Color:     "warning",
			Title:     "Writer buffer overflow",
			Text:      fmt.Sprintf("%d events dropped cumulatively", droppedTotal),
			Timestamp: time.Now().Unix(),
		}},
	})
}

// CacheCapacityRefused reports the state cache refusing a new symbol.
func (n *Notifier) CacheCapacityRefused(symbol string, max int) error {
	return n.send(Message{
		Text:      "Ticker state cache at capacity",
		Username:  "eventengine",
		IconEmoji: ":no_entry:",
		Attachments: []Attachment{{
			Color:     "warning",
			Title:     fmt.Sprintf("Refused new symbol %s", symbol),
			Text:      fmt.Sprintf("max_symbols=%d reached", max),
			Timestamp: time.Now().Unix(),
		}},
	})
}
