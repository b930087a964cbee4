package trigger

import (
	"encoding/json"

	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/event"
)

// serializedConfig is the JSON shape stored in market_triggers.config. It
// excludes the fields that already have dedicated columns (trigger_id,
// user_id, name, enabled, cooldown_seconds, last_fired).
type serializedConfig struct {
	AllowedTypes  []string `json:"allowed_types,omitempty"`
	SymbolInclude []string `json:"symbol_include,omitempty"`
	SymbolExclude []string `json:"symbol_exclude,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	MinVolume     *int64   `json:"min_volume,omitempty"`
	MinRVOL       *float64 `json:"min_rvol,omitempty"`
	Action        Action   `json:"action"`
	WorkflowID    string   `json:"workflow_id,omitempty"`
	AlertTemplate string   `json:"alert_template,omitempty"`
}

func encodeConfig(cfg Config) ([]byte, error) {
	s := serializedConfig{
		SymbolInclude: cfg.SymbolInclude,
		SymbolExclude: cfg.SymbolExclude,
		MinPrice:      cfg.MinPrice,
		MinVolume:     cfg.MinVolume,
		MinRVOL:       cfg.MinRVOL,
		Action:        cfg.Action,
		WorkflowID:    cfg.WorkflowID,
		AlertTemplate: cfg.AlertTemplate,
	}
	for _, t := range cfg.AllowedTypes {
		s.AllowedTypes = append(s.AllowedTypes, string(t))
	}
	return json.Marshal(s)
}

// decodeConfig rebuilds a Config from a persisted trigger row, splicing the
// column-backed fields (trigger_id, user_id, enabled, cooldown, last_fired)
// together with the JSON-encoded condition/action payload.
func decodeConfig(row dbstore.TriggerRow) (Config, error) {
	var s serializedConfig
	if err := dbstore.DecodeConfig(row, &s); err != nil {
		return Config{}, err
	}

	cfg := Config{
		TriggerID:       row.TriggerID,
		UserID:          row.UserID,
		Name:            row.Name,
		Enabled:         row.Enabled,
		CooldownSeconds: row.CooldownSeconds,
		SymbolInclude:   s.SymbolInclude,
		SymbolExclude:   s.SymbolExclude,
		MinPrice:        s.MinPrice,
		MinVolume:       s.MinVolume,
		MinRVOL:         s.MinRVOL,
		Action:          s.Action,
		WorkflowID:      s.WorkflowID,
		AlertTemplate:   s.AlertTemplate,
	}
	if row.LastFired != nil {
		cfg.LastFired = *row.LastFired
	}
	for _, t := range s.AllowedTypes {
		cfg.AllowedTypes = append(cfg.AllowedTypes, event.Type(t))
	}
	return cfg, nil
}
