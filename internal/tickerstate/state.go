// Package tickerstate defines the canonical per-symbol snapshot consumed by
// detectors, and the bounded cache mapping symbol to most recent state.
package tickerstate

import "time"

// Session is one of the four trading-session labels.
type Session string

const (
	SessionPreMarket  Session = "PRE_MARKET"
	SessionMarketOpen Session = "MARKET_OPEN"
	SessionPostMarket Session = "POST_MARKET"
	SessionClosed     Session = "CLOSED"
)

// State is the normalized per-symbol snapshot at an instant. A state update
// for a symbol replaces its predecessor atomically; a detector observes
// either the full old or full new value, never a mix.
type State struct {
	Symbol    string
	Timestamp time.Time

	Price           float64
	CumulativeVolume int64
	Open            float64
	High            float64
	Low             float64
	PrevClose       float64
	VWAP            float64

	IntradayHigh     float64
	IntradayLow      float64
	PreMarketHigh    float64
	PreMarketLow     float64
	PostMarketHigh   float64
	PostMarketLow    float64
	FiftyTwoWeekHigh float64
	FiftyTwoWeekLow  float64

	ATR        float64
	ATRPercent float64
	RVOL       float64
	TradeCount int64

	Chg1m, Chg5m, Chg10m, Chg15m, Chg30m *float64
	Vol1m, Vol5m, Vol10m, Vol15m, Vol30m *int64

	RSI            float64
	SMA8, SMA20, SMA50, SMA200 float64
	EMA20, EMA50               float64
	MACD, MACDSignal, MACDHist float64
	BollUpper, BollMid, BollLower float64
	Stoch1mK, Stoch1mD         float64
	Stoch5mK, Stoch5mD         float64
	SMA8_5m, SMA20_5m          float64
	MACD5m, MACDSignal5m       float64
	ADX                        float64
	DailySMA20, DailySMA50     float64

	MarketCap    float64
	FloatShares  float64
	Sector       string
	Industry     string
	SecurityType string

	Session Session

	OpeningRangeHigh float64
	OpeningRangeLow  float64

	Halted bool

	// Raw holds the full enriched upstream snapshot for writer context
	// capture; ignored by detectors.
	Raw map[string]interface{}
}

// GapPercent reports (open - prevClose) / prevClose * 100, or 0 if prevClose
// is unset.
func (s *State) GapPercent() float64 {
	if s.PrevClose == 0 {
		return 0
	}
	return (s.Open - s.PrevClose) / s.PrevClose * 100
}

// ChangeFromOpen reports (price - open) / open * 100, or 0 if open is unset.
func (s *State) ChangeFromOpen() float64 {
	if s.Open == 0 {
		return 0
	}
	return (s.Price - s.Open) / s.Open * 100
}

// ChangePercent reports (price - prevClose) / prevClose * 100.
func (s *State) ChangePercent() float64 {
	if s.PrevClose == 0 {
		return 0
	}
	return (s.Price - s.PrevClose) / s.PrevClose * 100
}
