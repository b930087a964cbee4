package dbstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TriggerRow is the persisted shape of one user's trigger, the MySQL
// equivalent of a "triggers:active:{user_id}" hash field.
type TriggerRow struct {
	TriggerID       string
	UserID          string
	Name            string
	Enabled         bool
	ConfigJSON      []byte
	CooldownSeconds int
	LastFired       *time.Time
}

// UpsertTrigger writes or replaces a trigger's persisted config.
func UpsertTrigger(db *DB, row TriggerRow) error {
	_, err := db.conn.Exec(
		`INSERT INTO market_triggers (trigger_id, user_id, name, enabled, config, cooldown_seconds, last_fired)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE name=VALUES(name), enabled=VALUES(enabled), config=VALUES(config),
		   cooldown_seconds=VALUES(cooldown_seconds), last_fired=VALUES(last_fired)`,
		row.TriggerID, row.UserID, row.Name, row.Enabled, row.ConfigJSON, row.CooldownSeconds, row.LastFired,
	)
	if err != nil {
		return fmt.Errorf("dbstore: upsert trigger failed: %w", err)
	}
	return nil
}

// UpdateLastFired is the dispatch-path persistence write. It is best-effort:
// the caller logs failures but does not roll back the dispatch that already
// happened in memory.
func UpdateLastFired(db *DB, userID, triggerID string, firedAt time.Time) error {
	_, err := db.conn.Exec(
		`UPDATE market_triggers SET last_fired=? WHERE user_id=? AND trigger_id=?`,
		firedAt, userID, triggerID,
	)
	if err != nil {
		return fmt.Errorf("dbstore: update last_fired failed: %w", err)
	}
	return nil
}

// DeleteTrigger removes a trigger from the registry.
func DeleteTrigger(db *DB, userID, triggerID string) error {
	_, err := db.conn.Exec(`DELETE FROM market_triggers WHERE user_id=? AND trigger_id=?`, userID, triggerID)
	return err
}

// LoadAllTriggers hydrates every persisted trigger row, matching the
// teacher-adjacent _load_all_triggers startup scan (here a table scan
// instead of a Redis SCAN over triggers:active:*).
func LoadAllTriggers(db *DB) ([]TriggerRow, error) {
	rows, err := db.conn.Query(`SELECT trigger_id, user_id, name, enabled, config, cooldown_seconds, last_fired FROM market_triggers`)
	if err != nil {
		return nil, fmt.Errorf("dbstore: load triggers failed: %w", err)
	}
	defer rows.Close()

	var out []TriggerRow
	for rows.Next() {
		var r TriggerRow
		var lastFired sql.NullTime
		if err := rows.Scan(&r.TriggerID, &r.UserID, &r.Name, &r.Enabled, &r.ConfigJSON, &r.CooldownSeconds, &lastFired); err != nil {
			return nil, err
		}
		if lastFired.Valid {
			r.LastFired = &lastFired.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DecodeConfig is a small helper so callers don't need to import
// encoding/json just to unmarshal a TriggerRow's stored config.
func DecodeConfig(row TriggerRow, out interface{}) error {
	if len(row.ConfigJSON) == 0 {
		return errors.New("dbstore: empty trigger config")
	}
	return json.Unmarshal(row.ConfigJSON, out)
}
