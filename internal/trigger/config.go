// Package trigger implements the TriggerEngine: per-user reactive rules
// evaluated against every surviving event, dispatching alerts or external
// workflow invocations on match.
//
// The design follows a nested user_id -> trigger_id cache, AND-combined
// condition evaluation, and a best-effort last_fired persistence contract.
package trigger

import (
	"errors"
	"time"

	"github.com/marketflux/eventengine/internal/event"
)

// Action selects what a matching trigger does.
type Action string

const (
	ActionAlert    Action = "alert"
	ActionWorkflow Action = "workflow"
)

// Config is one user-scoped reactive rule.
type Config struct {
	TriggerID string
	UserID    string
	Name      string
	Enabled   bool

	// Condition: every non-empty field below must match (AND-combined).
	AllowedTypes    []event.Type // empty means "any type"
	SymbolInclude   []string     // empty means "any symbol"
	SymbolExclude   []string
	MinPrice        *float64
	MinVolume       *int64
	MinRVOL         *float64

	// Action.
	Action          Action
	WorkflowID      string
	AlertTemplate   string

	CooldownSeconds int
	LastFired       time.Time
}

// Validate checks the config is well-formed before it is registered.
func (c Config) Validate() error {
	if c.TriggerID == "" || c.UserID == "" {
		return errors.New("trigger: trigger_id and user_id are required")
	}
	if c.Action != ActionAlert && c.Action != ActionWorkflow {
		return errors.New("trigger: action must be alert or workflow")
	}
	if c.Action == ActionWorkflow && c.WorkflowID == "" {
		return errors.New("trigger: workflow action requires workflow_id")
	}
	if c.CooldownSeconds < 0 {
		return errors.New("trigger: cooldown_seconds must be non-negative")
	}
	return nil
}

// matches evaluates every AND-combined condition against rec at time now.
func (c Config) matches(rec *event.Record, now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.CooldownSeconds > 0 && !c.LastFired.IsZero() && now.Sub(c.LastFired) < time.Duration(c.CooldownSeconds)*time.Second {
		return false
	}
	if len(c.AllowedTypes) > 0 && !containsType(c.AllowedTypes, rec.EventType) {
		return false
	}
	if len(c.SymbolInclude) > 0 && !containsString(c.SymbolInclude, rec.Symbol) {
		return false
	}
	if containsString(c.SymbolExclude, rec.Symbol) {
		return false
	}
	if c.MinPrice != nil && rec.Price < *c.MinPrice {
		return false
	}
	if c.MinVolume != nil && (rec.Volume == nil || *rec.Volume < *c.MinVolume) {
		return false
	}
	if c.MinRVOL != nil && (rec.RVOL == nil || *rec.RVOL < *c.MinRVOL) {
		return false
	}
	return true
}

func containsType(list []event.Type, t event.Type) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
