// Package event defines the closed EventType tag set and the EventRecord
// artifact produced by detectors and carried through the engine, broadcast
// bus, writer, and trigger engine.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type is a stable tag drawn from the closed enumeration below. New tags
// append; existing tags are never repurposed.
type Type string

const (
	// Level-crossing
	TypeVWAPCrossUp       Type = "VWAP_CROSS_UP"
	TypeVWAPCrossDown     Type = "VWAP_CROSS_DOWN"
	TypeOpenCrossUp       Type = "OPEN_CROSS_UP"
	TypeOpenCrossDown     Type = "OPEN_CROSS_DOWN"
	TypePrevCloseCrossUp  Type = "PREV_CLOSE_CROSS_UP"
	TypePrevCloseCrossDn  Type = "PREV_CLOSE_CROSS_DOWN"
	TypeSMA20CrossUp      Type = "SMA20_CROSS_UP"
	TypeSMA20CrossDown    Type = "SMA20_CROSS_DOWN"
	TypeSMA50CrossUp      Type = "SMA50_CROSS_UP"
	TypeSMA50CrossDown    Type = "SMA50_CROSS_DOWN"
	TypeEMA20CrossUp      Type = "EMA20_CROSS_UP"
	TypeEMA20CrossDown    Type = "EMA20_CROSS_DOWN"

	// New-extreme
	TypeNewHigh       Type = "NEW_HIGH"
	TypeNewLow        Type = "NEW_LOW"
	TypePreMarketHigh Type = "PRE_MARKET_HIGH"
	TypePreMarketLow  Type = "PRE_MARKET_LOW"
	TypePostMarketHigh Type = "POST_MARKET_HIGH"
	TypePostMarketLow  Type = "POST_MARKET_LOW"
	TypeFiftyTwoWeekHigh Type = "FIFTY_TWO_WEEK_HIGH"
	TypeFiftyTwoWeekLow  Type = "FIFTY_TWO_WEEK_LOW"

	// Window-threshold
	TypeRVOLSpike     Type = "RVOL_SPIKE"
	TypeVolumeSurge   Type = "VOLUME_SURGE"
	TypeUnusualPrint  Type = "UNUSUAL_PRINT"
	TypeBlockTrade    Type = "BLOCK_TRADE"
	TypePercentUp5    Type = "PERCENT_UP_5"
	TypePercentUp10   Type = "PERCENT_UP_10"
	TypeRunningUp     Type = "RUNNING_UP"
	TypeRunningDown   Type = "RUNNING_DOWN"

	// Pullback
	TypePullback75FromHigh     Type = "PULLBACK_75_FROM_HIGH"
	TypePullback25FromHigh     Type = "PULLBACK_25_FROM_HIGH"
	TypePullback75FromLow      Type = "PULLBACK_75_FROM_LOW"
	TypePullback25FromLow      Type = "PULLBACK_25_FROM_LOW"
	TypePullback75FromHighOpen Type = "PULLBACK_75_FROM_HIGH_OPEN"
	TypePullback75FromHighClose Type = "PULLBACK_75_FROM_HIGH_CLOSE"

	// Gap-reversal
	TypeGapUpReversal   Type = "GAP_UP_REVERSAL"
	TypeGapDownReversal Type = "GAP_DOWN_REVERSAL"

	// Halt/resume
	TypeHalt   Type = "HALT"
	TypeResume Type = "RESUME"

	// 5-minute indicator-cross
	TypeSMA8x20Cross5m     Type = "SMA8_SMA20_CROSS_5M"
	TypeMACDSignalCross5m  Type = "MACD_SIGNAL_CROSS_5M"
	TypeMACDZeroCross5m    Type = "MACD_ZERO_CROSS_5M"
	TypeStochOverbought5m  Type = "STOCH_OVERBOUGHT_5M"
	TypeStochOversold5m    Type = "STOCH_OVERSOLD_5M"

	// Breakout
	TypeOpeningRangeBreakoutUp   Type = "ORBU"
	TypeOpeningRangeBreakoutDown Type = "ORBD"
	TypeConsolidationBreakoutUp   Type = "CBU"
	TypeConsolidationBreakoutDown Type = "CBD"

	// Deprecated: never emitted by any registered detector, retained solely
	// so historical rows deserialize.
	TypeDeprecatedMA1CrossUp    Type = "MA1_CROSS_UP"
	TypeDeprecatedMA1CrossDown  Type = "MA1_CROSS_DOWN"
	TypeDeprecatedMACD1mCross   Type = "MACD_CROSS_1M"
	TypeDeprecatedStoch1mCross  Type = "STOCH_CROSS_1M"
)

// Record is the immutable artifact describing a single detected event.
// Fields mirror the ~forty-scalar context snapshot captured at fire time
// and the exact market_events column set.
type Record struct {
	ID        string    `json:"id"`
	EventType Type      `json:"event_type"`
	RuleID    string    `json:"rule_id"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"ts"`

	Price      float64  `json:"price"`
	PrevValue  *float64 `json:"prev_value,omitempty"`
	NewValue   *float64 `json:"new_value,omitempty"`
	Delta      *float64 `json:"delta,omitempty"`
	DeltaPct   *float64 `json:"delta_percent,omitempty"`

	// Context snapshot, captured at fire time inside the per-symbol
	// serialized region so it reflects exactly the state that fired.
	ChangePercent   *float64 `json:"change_percent,omitempty"`
	RVOL            *float64 `json:"rvol,omitempty"`
	Volume          *int64   `json:"volume,omitempty"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	FloatShares     *float64 `json:"float_shares,omitempty"`
	GapPercent      *float64 `json:"gap_percent,omitempty"`
	ChangeFromOpen  *float64 `json:"change_from_open,omitempty"`
	OpenPrice       *float64 `json:"open_price,omitempty"`
	PrevClose       *float64 `json:"prev_close,omitempty"`
	VWAP            *float64 `json:"vwap,omitempty"`
	ATRPercent      *float64 `json:"atr_percent,omitempty"`
	IntradayHigh    *float64 `json:"intraday_high,omitempty"`
	IntradayLow     *float64 `json:"intraday_low,omitempty"`
	Chg1m           *float64 `json:"chg_1min,omitempty"`
	Chg5m           *float64 `json:"chg_5min,omitempty"`
	Chg10m          *float64 `json:"chg_10min,omitempty"`
	Chg15m          *float64 `json:"chg_15min,omitempty"`
	Chg30m          *float64 `json:"chg_30min,omitempty"`
	Vol1m           *int64   `json:"vol_1min,omitempty"`
	Vol5m           *int64   `json:"vol_5min,omitempty"`
	RSI             *float64 `json:"rsi,omitempty"`
	EMA20           *float64 `json:"ema_20,omitempty"`
	EMA50           *float64 `json:"ema_50,omitempty"`
	SecurityType    string   `json:"security_type,omitempty"`
	Sector          string   `json:"sector,omitempty"`

	Details map[string]interface{} `json:"details,omitempty"`

	// Snapshot carries the full enriched upstream snapshot at fire time.
	// It travels to the writer but is stripped before broadcast.
	Snapshot map[string]interface{} `json:"-"`
}

// New builds a record with a fresh id and the given timestamp.
func New(eventType Type, ruleID, symbol string, ts time.Time, price float64) *Record {
	return &Record{
		ID:        uuid.NewString(),
		EventType: eventType,
		RuleID:    ruleID,
		Symbol:    symbol,
		Timestamp: ts,
		Price:     price,
	}
}

// WithoutSnapshot returns a shallow copy suitable for broadcast: the full
// enriched snapshot is never sent to real-time subscribers, only to the
// writer buffer.
func (r *Record) WithoutSnapshot() *Record {
	cp := *r
	cp.Snapshot = nil
	return &cp
}

// MarshalJSON omits nil-valued optional fields, keeping the wire payload
// Redis-safe and compact.
func (r *Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal((*alias)(r))
}

func ptr(f float64) *float64 { return &f }
func iptr(i int64) *int64    { return &i }

// PtrFloat and PtrInt are exported convenience constructors used by
// detectors when populating optional context fields.
func PtrFloat(f float64) *float64 { return ptr(f) }
func PtrInt(i int64) *int64       { return iptr(i) }
