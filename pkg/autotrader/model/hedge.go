package model

// PendingHedge tracks a hedge order in flight, from submission until it is
// fully filled or abandoned after the retry budget runs out.
type PendingHedge struct {
	OrderID        uint64
	TriggerOrderID uint64
	Side           Side
	Price          int64
	Volume         int64
	// Unwind marks a hedge that offsets an over-hedge rather than a primary
	// fill. Unwind hedges retry like normal ones but never spawn further
	// unwinds.
	Unwind  bool
	Retries int
}
