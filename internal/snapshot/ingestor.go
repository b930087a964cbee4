// Package snapshot converts the upstream enriched snapshot — a per-symbol
// field bag of roughly ninety possible fields — into the canonical
// tickerstate.State consumed by the rest of the pipeline.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/marketflux/eventengine/internal/tickerstate"
)

// Ingestor defines the canonical field extraction. Unknown fields are not
// dropped: Normalize attaches the raw bag to State.Raw so the writer can still
// serialize them into the context column, even though detectors never see
// them directly.
type Ingestor struct {
	invalidRows   int64
	processedRows int64
}

// New constructs an Ingestor with zeroed counters.
func New() *Ingestor {
	return &Ingestor{}
}

// Normalize converts one symbol's raw field bag into a State. Returns
// (nil, false) for rows missing a symbol or without a resolvable positive
// price — those are invalid and are dropped with a counter increment,
// never propagated as an error.
func (ing *Ingestor) Normalize(symbol string, bag map[string]interface{}) (*tickerstate.State, bool) {
	if symbol == "" {
		atomic.AddInt64(&ing.invalidRows, 1)
		return nil, false
	}

	price := extractPrice(bag)
	if price <= 0 {
		atomic.AddInt64(&ing.invalidRows, 1)
		return nil, false
	}

	st := &tickerstate.State{
		Symbol:           symbol,
		Timestamp:        extractTimestamp(bag),
		Price:            price,
		CumulativeVolume: extractVolume(bag),
		Open:             nestedFloat(bag, "day", "o"),
		High:             nestedFloat(bag, "day", "h"),
		Low:              nestedFloat(bag, "day", "l"),
		PrevClose:        nestedFloat(bag, "prevDay", "c"),
		VWAP:             nestedFloat(bag, "day", "vw"),

		IntradayHigh:   floatField(bag, "intradayHigh"),
		IntradayLow:    floatField(bag, "intradayLow"),
		PreMarketHigh:  floatField(bag, "preMarketHigh"),
		PreMarketLow:   floatField(bag, "preMarketLow"),
		PostMarketHigh: floatField(bag, "postMarketHigh"),
		PostMarketLow:  floatField(bag, "postMarketLow"),

		FiftyTwoWeekHigh: floatField(bag, "fiftyTwoWeekHigh"),
		FiftyTwoWeekLow:  floatField(bag, "fiftyTwoWeekLow"),

		ATR:        floatField(bag, "atr"),
		ATRPercent: floatField(bag, "atrPercent"),
		RVOL:       floatField(bag, "rvol"),
		TradeCount: int64Field(bag, "tradeCount"),

		RSI:        floatField(bag, "rsi"),
		SMA8:       floatField(bag, "sma8"),
		SMA20:      floatField(bag, "sma20"),
		SMA50:      floatField(bag, "sma50"),
		SMA200:     floatField(bag, "sma200"),
		EMA20:      floatField(bag, "ema20"),
		EMA50:      floatField(bag, "ema50"),
		MACD:       floatField(bag, "macd"),
		MACDSignal: floatField(bag, "macdSignal"),
		MACDHist:   floatField(bag, "macdHist"),

		BollUpper: floatField(bag, "bollUpper"),
		BollMid:   floatField(bag, "bollMid"),
		BollLower: floatField(bag, "bollLower"),

		Stoch1mK: floatField(bag, "stoch1mK"),
		Stoch1mD: floatField(bag, "stoch1mD"),
		Stoch5mK: floatField(bag, "stoch5mK"),
		Stoch5mD: floatField(bag, "stoch5mD"),
		SMA8_5m:  floatField(bag, "sma8_5m"),
		SMA20_5m: floatField(bag, "sma20_5m"),
		MACD5m:       floatField(bag, "macd5m"),
		MACDSignal5m: floatField(bag, "macdSignal5m"),
		ADX:          floatField(bag, "adx"),
		DailySMA20:   floatField(bag, "dailySma20"),
		DailySMA50:   floatField(bag, "dailySma50"),

		MarketCap:    floatField(bag, "marketCap"),
		FloatShares:  floatField(bag, "floatShares"),
		Sector:       stringField(bag, "sector"),
		Industry:     stringField(bag, "industry"),
		SecurityType: stringField(bag, "securityType"),
		Session:      extractSession(bag),

		OpeningRangeHigh: floatField(bag, "openingRangeHigh"),
		OpeningRangeLow:  floatField(bag, "openingRangeLow"),

		Halted: boolField(bag, "halted"),
		Raw:    bag,
	}

	atomic.AddInt64(&ing.processedRows, 1)
	return st, true
}

// Stats returns (processed, invalid) row counts for operator dashboards.
func (ing *Ingestor) Stats() (processed, invalid int64) {
	return atomic.LoadInt64(&ing.processedRows), atomic.LoadInt64(&ing.invalidRows)
}

// extractPrice follows the fallback chain lastTrade.p -> day.c -> prevDay.c.
func extractPrice(bag map[string]interface{}) float64 {
	if p := nestedFloat(bag, "lastTrade", "p"); p > 0 {
		return p
	}
	if p := nestedFloat(bag, "day", "c"); p > 0 {
		return p
	}
	return nestedFloat(bag, "prevDay", "c")
}

// extractVolume follows the fallback chain min.av -> day.v -> 0.
func extractVolume(bag map[string]interface{}) int64 {
	if v := nestedInt(bag, "min", "av"); v > 0 {
		return v
	}
	return nestedInt(bag, "day", "v")
}

func extractTimestamp(bag map[string]interface{}) time.Time {
	if v, ok := bag["ts"]; ok {
		switch t := v.(type) {
		case int64:
			return time.Unix(t, 0)
		case float64:
			return time.Unix(int64(t), 0)
		case time.Time:
			return t
		}
	}
	return time.Now()
}

func extractSession(bag map[string]interface{}) tickerstate.Session {
	s := stringField(bag, "session")
	switch tickerstate.Session(s) {
	case tickerstate.SessionPreMarket, tickerstate.SessionMarketOpen, tickerstate.SessionPostMarket, tickerstate.SessionClosed:
		return tickerstate.Session(s)
	default:
		return tickerstate.SessionMarketOpen
	}
}

func nestedFloat(bag map[string]interface{}, outer, inner string) float64 {
	o, ok := bag[outer].(map[string]interface{})
	if !ok {
		return 0
	}
	return toFloat(o[inner])
}

func nestedInt(bag map[string]interface{}, outer, inner string) int64 {
	o, ok := bag[outer].(map[string]interface{})
	if !ok {
		return 0
	}
	return toInt(o[inner])
}

func floatField(bag map[string]interface{}, key string) float64 { return toFloat(bag[key]) }
func int64Field(bag map[string]interface{}, key string) int64   { return toInt(bag[key]) }

func stringField(bag map[string]interface{}, key string) string {
	s, _ := bag[key].(string)
	return s
}

func boolField(bag map[string]interface{}, key string) bool {
	b, _ := bag[key].(bool)
	return b
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
