package dbstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marketflux/eventengine/internal/event"
)

// eventColumns is the exact market_events column order (see DESIGN.md).
var eventColumns = []string{
	"id", "ts", "symbol", "event_type", "rule_id", "price", "change_pct", "rvol",
	"volume", "market_cap", "float_shares", "gap_pct", "security_type", "sector",
	"prev_value", "new_value", "delta", "delta_pct", "change_from_open",
	"open_price", "prev_close", "vwap", "atr_pct", "intraday_high", "intraday_low",
	"chg_1min", "chg_5min", "chg_10min", "chg_15min", "chg_30min",
	"vol_1min", "vol_5min", "rsi", "ema_20", "ema_50", "details", "context",
}

// InsertEventBatch performs one batched insert with INSERT IGNORE, the
// MySQL/TiDB equivalent of a Postgres ON CONFLICT (id, ts) DO NOTHING —
// persistence is idempotent under retry. An empty batch is a no-op.
func InsertEventBatch(db *DB, records []*event.Record) error {
	if len(records) == 0 {
		return nil
	}
	if db == nil {
		return fmt.Errorf("dbstore: batch insert failed: no database connection")
	}

	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*len(eventColumns))

	rowPlaceholder := "(" + strings.TrimRight(strings.Repeat("?,", len(eventColumns)), ",") + ")"
	for i, rec := range records {
		placeholders[i] = rowPlaceholder
		args = append(args, rowArgs(rec)...)
	}

	query := fmt.Sprintf(
		"INSERT IGNORE INTO market_events (%s) VALUES %s",
		strings.Join(eventColumns, ","),
		strings.Join(placeholders, ","),
	)

	_, err := db.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("dbstore: batch insert failed: %w", err)
	}
	return nil
}

func rowArgs(rec *event.Record) []interface{} {
	details, _ := json.Marshal(rec.Details)
	context, _ := json.Marshal(rec.Snapshot)

	return []interface{}{
		rec.ID, rec.Timestamp.UTC(), rec.Symbol, string(rec.EventType), rec.RuleID,
		rec.Price, rec.ChangePercent, rec.RVOL, rec.Volume, rec.MarketCap,
		rec.FloatShares, rec.GapPercent, nullIfEmpty(rec.SecurityType), nullIfEmpty(rec.Sector),
		rec.PrevValue, rec.NewValue, rec.Delta, rec.DeltaPct, rec.ChangeFromOpen,
		rec.OpenPrice, rec.PrevClose, rec.VWAP, rec.ATRPercent, rec.IntradayHigh, rec.IntradayLow,
		rec.Chg1m, rec.Chg5m, rec.Chg10m, rec.Chg15m, rec.Chg30m,
		rec.Vol1m, rec.Vol5m, rec.RSI, rec.EMA20, rec.EMA50,
		string(details), string(context),
	}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// DeleteOlderThan implements the retention sweep: the MySQL/TiDB equivalent
// of the hypertable's add_retention_policy, since the driver stack here has
// no native chunk-drop primitive (see DESIGN.md).
func DeleteOlderThan(db *DB, cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec("DELETE FROM market_events WHERE ts < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("dbstore: retention sweep failed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
