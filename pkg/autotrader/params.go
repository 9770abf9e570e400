package autotrader

// StrategyParams are the exchange and quoting constants. All of them are
// configuration, none are computed at runtime.
type StrategyParams struct {
	// TickSize is the minimal price increment in cents.
	TickSize int64 `yaml:"tick_size"`
	// MinimumBid and MaximumAsk bound admissible prices before clamping to
	// the nearest tick.
	MinimumBid int64 `yaml:"minimum_bid"`
	MaximumAsk int64 `yaml:"maximum_ask"`
	// LotSize is the fixed per-quote clip volume.
	LotSize int64 `yaml:"lot_size"`
	// PositionLimit caps the absolute net primary-instrument position.
	PositionLimit int64 `yaml:"position_limit"`
	// HedgeMaxRetries bounds re-submission of a failed hedge before it is
	// abandoned.
	HedgeMaxRetries int `yaml:"hedge_max_retries"`
}

// MinBidNearestTick is the lowest admissible price rounded up to a tick.
func (p StrategyParams) MinBidNearestTick() int64 {
	return (p.MinimumBid + p.TickSize) / p.TickSize * p.TickSize
}

// MaxAskNearestTick is the highest admissible price rounded down to a tick.
func (p StrategyParams) MaxAskNearestTick() int64 {
	return p.MaximumAsk / p.TickSize * p.TickSize
}

// ClampPrice bounds a price to the admissible band.
func (p StrategyParams) ClampPrice(price int64) int64 {
	if min := p.MinBidNearestTick(); price < min {
		return min
	}
	if max := p.MaxAskNearestTick(); price > max {
		return max
	}
	return price
}
