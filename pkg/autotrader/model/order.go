package model

// Side of an order, buy or sell.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Lifespan is the order duration policy.
type Lifespan string

const (
	// LifespanGoodForDay rests on the book until cancelled.
	LifespanGoodForDay Lifespan = "GOOD_FOR_DAY"
	// LifespanFillAndKill cancels any unfilled remainder immediately.
	LifespanFillAndKill Lifespan = "FILL_AND_KILL"
)

// Instrument identifies one of the two tradable legs.
type Instrument string

const (
	InstrumentETF    Instrument = "ETF"
	InstrumentFuture Instrument = "FUTURE"
)

// Order is the ledger's record of one client order. Prices and volumes are
// positive integers in minimal tick units; an order with a zero price or
// volume is invalid and must never reach the exchange.
type Order struct {
	ID         uint64
	Instrument Instrument
	Side       Side
	Price      int64
	// Volume is the unfilled remainder; Filled accumulates executions so
	// total-volume amendments can be resolved against the venue's view.
	Volume        int64
	Filled        int64
	Lifespan      Lifespan
	CreatedAtTick uint64
}

// Clone returns a copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
