package detector

import (
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/tickerstate"
)

// annotateContext fills the ~forty-scalar context snapshot shared by every
// detector family, captured from the exact state that produced the fire.
// It also attaches the state's full raw snapshot as rec.Snapshot, which the
// engine strips before broadcast and passes through to the writer.
func annotateContext(rec *event.Record, s *tickerstate.State) {
	cp := s.ChangePercent()
	rec.ChangePercent = event.PtrFloat(cp)
	rec.RVOL = event.PtrFloat(s.RVOL)
	rec.Volume = event.PtrInt(s.CumulativeVolume)
	rec.MarketCap = event.PtrFloat(s.MarketCap)
	rec.FloatShares = event.PtrFloat(s.FloatShares)
	rec.GapPercent = event.PtrFloat(s.GapPercent())
	rec.ChangeFromOpen = event.PtrFloat(s.ChangeFromOpen())
	rec.OpenPrice = event.PtrFloat(s.Open)
	rec.PrevClose = event.PtrFloat(s.PrevClose)
	rec.VWAP = event.PtrFloat(s.VWAP)
	rec.ATRPercent = event.PtrFloat(s.ATRPercent)
	rec.IntradayHigh = event.PtrFloat(s.IntradayHigh)
	rec.IntradayLow = event.PtrFloat(s.IntradayLow)
	rec.Chg1m = s.Chg1m
	rec.Chg5m = s.Chg5m
	rec.Chg10m = s.Chg10m
	rec.Chg15m = s.Chg15m
	rec.Chg30m = s.Chg30m
	rec.Vol1m = s.Vol1m
	rec.Vol5m = s.Vol5m
	rec.RSI = event.PtrFloat(s.RSI)
	rec.EMA20 = event.PtrFloat(s.EMA20)
	rec.EMA50 = event.PtrFloat(s.EMA50)
	rec.SecurityType = s.SecurityType
	rec.Sector = s.Sector
	rec.Snapshot = s.Raw
}
