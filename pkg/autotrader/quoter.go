package autotrader

import (
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// ImbalanceSignals are the volume-pressure flags derived from the hedge
// instrument's book. Seen stays false until the first hedge book arrives, in
// which case quotes sit exactly at best bid/ask.
type ImbalanceSignals struct {
	Buy  bool
	Sell bool
	Seen bool
}

// ComputeSignals flags one-sided volume pressure: a side is signalled when
// its share of total reported volume exceeds three quarters.
func ComputeSignals(book *model.BookUpdate) ImbalanceSignals {
	bidVol := book.BidVolumeTotal()
	askVol := book.AskVolumeTotal()
	total := bidVol + askVol
	if total == 0 {
		return ImbalanceSignals{Seen: true}
	}
	return ImbalanceSignals{
		Buy:  2*(bidVol-askVol) > total,
		Sell: 2*(askVol-bidVol) > total,
		Seen: true,
	}
}

// QuotePlan is the desired quote set for the primary instrument. A side
// price of zero means that book side is empty and nothing can rest there;
// OpenBid/OpenAsk gate opening a new quote when none is resting, per the
// position-limit admission checks.
type QuotePlan struct {
	BidPrice int64
	AskPrice int64
	Volume   int64
	OpenBid  bool
	OpenAsk  bool
}

// QuotePlanner decides the two-sided quote (or single-sided when the
// position is pinned against the limit) from the latest top-of-book.
type QuotePlanner struct {
	params StrategyParams
}

func NewQuotePlanner(params StrategyParams) *QuotePlanner {
	return &QuotePlanner{params: params}
}

// Plan computes the target quotes for one primary book update.
//
// Offsets from best price follow the imbalance signals: one-sided buy
// pressure keeps the bid at best and backs the ask off two ticks, one-sided
// sell pressure mirrors that, and an ambiguous regime (both signals or
// neither) falls back to a single-tick offset on both sides.
func (q *QuotePlanner) Plan(book *model.BookUpdate, sig ImbalanceSignals, position, pendingBuy, pendingSell int64) QuotePlan {
	plan := QuotePlan{Volume: q.params.LotSize}

	bidOffset, askOffset := q.offsets(sig)
	if best := book.BestBid(); best > 0 {
		plan.BidPrice = q.params.ClampPrice(best - bidOffset*q.params.TickSize)
	}
	if best := book.BestAsk(); best > 0 {
		plan.AskPrice = q.params.ClampPrice(best + askOffset*q.params.TickSize)
	}

	// Admission: a new quote is allowed only if its worst-case fill keeps the
	// position inside the limit, counting volume already resting on that side.
	plan.OpenBid = plan.BidPrice > 0 &&
		position+pendingBuy+q.params.LotSize <= q.params.PositionLimit
	plan.OpenAsk = plan.AskPrice > 0 &&
		position-pendingSell-q.params.LotSize >= -q.params.PositionLimit

	return plan
}

func (q *QuotePlanner) offsets(sig ImbalanceSignals) (bid, ask int64) {
	if !sig.Seen {
		return 0, 0
	}
	switch {
	case sig.Buy && !sig.Sell:
		return 0, 2
	case sig.Sell && !sig.Buy:
		return 2, 0
	default:
		return 1, 1
	}
}
