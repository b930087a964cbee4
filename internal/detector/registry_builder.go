package detector

// BuildDefaultRegistry constructs a Registry with the full catalog of
// detectors wired by this module. Registration order is fixed, which is
// also the per-symbol evaluation order.
func BuildDefaultRegistry() *Registry {
	r := NewRegistry()

	// Level-crossing
	r.Register(NewVWAPCross())
	r.Register(NewOpenCross())
	r.Register(NewPrevCloseCross())
	r.Register(NewSMA20Cross())
	r.Register(NewSMA50Cross())
	r.Register(NewEMA20Cross())

	// New-extreme
	r.Register(NewNewHighDetector())
	r.Register(NewNewLowDetector())
	r.Register(NewPreMarketHighDetector())
	r.Register(NewPreMarketLowDetector())
	r.Register(NewPostMarketHighDetector())
	r.Register(NewPostMarketLowDetector())
	r.Register(NewFiftyTwoWeekHighDetector())
	r.Register(NewFiftyTwoWeekLowDetector())

	// Window-threshold
	r.Register(NewRVOLSpikeDetector())
	r.Register(NewVolumeSurgeDetector())
	r.Register(NewPercentUp5Detector())
	r.Register(NewPercentUp10Detector())
	r.Register(NewRunningUpDetector())
	r.Register(NewRunningDownDetector())

	// Pullback
	r.Register(NewPullback75FromHighDetector())
	r.Register(NewPullback25FromHighDetector())
	r.Register(NewPullback75FromLowDetector())
	r.Register(NewPullback25FromLowDetector())
	r.Register(NewPullback75FromHighOpenDetector())
	r.Register(NewPullback75FromHighCloseDetector())

	// Gap-reversal
	r.Register(NewGapUpReversalDetector())
	r.Register(NewGapDownReversalDetector())

	// Halt/resume
	r.Register(NewHaltDetector())

	// 5-minute indicator-cross
	r.Register(NewSMA8x20Cross5mDetector())
	r.Register(NewMACDSignalCross5mDetector())
	r.Register(NewMACDZeroCross5mDetector())
	r.Register(NewStochOverbought5mDetector())
	r.Register(NewStochOversold5mDetector())

	// Breakout
	r.Register(NewOpeningRangeBreakoutDetector())
	r.Register(NewConsolidationBreakoutDetector())

	return r
}
