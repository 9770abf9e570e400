package autotrader

import (
	"github.com/shopspring/decimal"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// PositionBook tracks net lots per instrument, updated only from confirmed
// fills. It never clamps; the quote planner keeps the primary position inside
// the limit by refusing submissions whose worst-case fill would breach it.
type PositionBook struct {
	lots map[model.Instrument]int64

	// cash is the signed dollar flow from fills (sells positive), fees the
	// cumulative exchange fees, both for P&L reasoning only.
	cash decimal.Decimal
	fees decimal.Decimal
}

func NewPositionBook() *PositionBook {
	return &PositionBook{
		lots: make(map[model.Instrument]int64),
		cash: decimal.Zero,
		fees: decimal.Zero,
	}
}

// ApplyFill adjusts the signed position: +volume for a BUY fill, -volume for
// a SELL fill. Pure bookkeeping, no side effects.
func (p *PositionBook) ApplyFill(instrument model.Instrument, side model.Side, price, volume int64) {
	notional := model.Notional(price, volume)
	if side == model.SideBuy {
		p.lots[instrument] += volume
		p.cash = p.cash.Sub(notional)
	} else {
		p.lots[instrument] -= volume
		p.cash = p.cash.Add(notional)
	}
}

// AddFees accrues exchange fees reported in cents.
func (p *PositionBook) AddFees(feesCents int64) {
	p.fees = p.fees.Add(decimal.NewFromInt(feesCents).Div(decimal.NewFromInt(100)))
}

// Position returns net lots held for an instrument, positive for long.
func (p *PositionBook) Position(instrument model.Instrument) int64 {
	return p.lots[instrument]
}

// Cash returns the signed dollar flow accumulated from fills.
func (p *PositionBook) Cash() decimal.Decimal {
	return p.cash
}

// Fees returns cumulative fees in dollars.
func (p *PositionBook) Fees() decimal.Decimal {
	return p.fees
}
