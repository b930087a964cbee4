package dbstore

import (
	"fmt"
	"strings"
)

// EnsureSchema idempotently creates the market_events table (a stand-in for
// a TimescaleDB hypertable — see DESIGN.md's dbstore entry for why no native
// hypertable is available in this module's dependency graph), its secondary
// indexes, and the market_triggers registry table. market_events is a plain
// table keyed by (id, ts): it is not partitioned, and old rows are removed
// only by DeleteOlderThan.
func EnsureSchema(db *DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS market_events (
			id CHAR(36) NOT NULL,
			ts DATETIME(6) NOT NULL,
			symbol VARCHAR(16) NOT NULL,
			event_type VARCHAR(40) NOT NULL,
			rule_id VARCHAR(80) NOT NULL,
			price DOUBLE NOT NULL,
			change_pct DOUBLE,
			rvol DOUBLE,
			volume BIGINT,
			market_cap DOUBLE,
			float_shares DOUBLE,
			gap_pct DOUBLE,
			security_type VARCHAR(20),
			sector VARCHAR(60),
			prev_value DOUBLE,
			new_value DOUBLE,
			delta DOUBLE,
			delta_pct DOUBLE,
			change_from_open DOUBLE,
			open_price DOUBLE,
			prev_close DOUBLE,
			vwap DOUBLE,
			atr_pct DOUBLE,
			intraday_high DOUBLE,
			intraday_low DOUBLE,
			chg_1min DOUBLE,
			chg_5min DOUBLE,
			chg_10min DOUBLE,
			chg_15min DOUBLE,
			chg_30min DOUBLE,
			vol_1min BIGINT,
			vol_5min BIGINT,
			rsi DOUBLE,
			ema_20 DOUBLE,
			ema_50 DOUBLE,
			details JSON,
			context JSON,
			PRIMARY KEY (id, ts)
		)`,
		`CREATE INDEX idx_mevt_type_ts ON market_events (event_type, ts)`,
		`CREATE INDEX idx_mevt_sym_ts ON market_events (symbol, ts)`,

		`CREATE TABLE IF NOT EXISTS market_triggers (
			trigger_id VARCHAR(40) NOT NULL,
			user_id VARCHAR(40) NOT NULL,
			name VARCHAR(120),
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			config JSON NOT NULL,
			cooldown_seconds INT NOT NULL DEFAULT 0,
			last_fired DATETIME(6) NULL,
			PRIMARY KEY (user_id, trigger_id)
		)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil && !isDuplicateIndexErr(err) {
			return fmt.Errorf("dbstore: schema migration failed: %w", err)
		}
	}
	return nil
}

// isDuplicateIndexErr tolerates CREATE INDEX re-runs: MySQL has no
// CREATE INDEX IF NOT EXISTS, so ensure_schema on an already-migrated
// database must not treat "duplicate key name" as fatal.
func isDuplicateIndexErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key name") || strings.Contains(msg, "already exists")
}
