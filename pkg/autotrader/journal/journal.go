package journal

import "github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"

// Journal records every order-lifecycle event so a quoting or hedging
// decision can be reconstructed post hoc. Appending must never fail the
// caller; sinks that can error handle it internally.
type Journal interface {
	Append(ev *model.OrderEvent)
	// EventsForOrder returns the recorded events for one order id, oldest
	// first.
	EventsForOrder(orderID uint64) []*model.OrderEvent
	// ReplacementChain walks replacement links backward from the given order
	// id to the original order that started the chain.
	ReplacementChain(orderID uint64) []uint64
}
