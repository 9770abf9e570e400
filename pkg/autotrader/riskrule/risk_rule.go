package riskrule

import "github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"

// RiskRule is a pre-submission check run against every would-be insert. A
// returned error blocks the submission; the caller logs and drops the order.
type RiskRule interface {
	Check(order *model.Order) error
}
