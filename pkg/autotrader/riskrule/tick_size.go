package riskrule

import (
	"fmt"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// TickSizeRule rejects orders whose price is not a multiple of the tick.
type TickSizeRule struct {
	TickSize int64
}

func NewTickSizeRule(tickSize int64) *TickSizeRule {
	return &TickSizeRule{TickSize: tickSize}
}

func (r *TickSizeRule) Check(order *model.Order) error {
	if r.TickSize <= 0 {
		return nil
	}
	if order.Price%r.TickSize != 0 {
		return fmt.Errorf("price %d not aligned to tick %d", order.Price, r.TickSize)
	}
	return nil
}
