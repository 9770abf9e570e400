package autotrader

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/journal"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

// Reconciler converges the ledger's resting primary quotes onto a QuotePlan
// with the minimal set of actions, in a fixed order: cancels first, then
// amend-by-replace for repriced orders, new inserts last. Convergence is
// idempotent; an order already resting at its target price is untouched.
type Reconciler struct {
	ledger    *Ledger
	positions *PositionBook
	jrn       journal.Journal
	log       *logging.Logger

	instrument model.Instrument
}

func NewReconciler(ledger *Ledger, positions *PositionBook, jrn journal.Journal, log *logging.Logger, instrument model.Instrument) *Reconciler {
	return &Reconciler{
		ledger:     ledger,
		positions:  positions,
		jrn:        jrn,
		log:        log,
		instrument: instrument,
	}
}

// Converge issues the actions that take the resting quote set to the plan.
// allocID hands out fresh order identifiers; tick stamps newly created
// orders.
func (r *Reconciler) Converge(ctx context.Context, plan QuotePlan, tick uint64, allocID func() uint64) {
	live := r.ledger.Live(r.instrument)

	// Cancels: a side whose book has vanished cannot be quoted.
	for _, order := range live {
		if r.targetPrice(plan, order.Side) != 0 {
			continue
		}
		if err := r.ledger.Cancel(ctx, order.ID); err != nil {
			continue
		}
		r.jrn.Append(model.NewOrderEvent(model.EventTypeCancel, order, r.position(), tick))
	}

	// Amend-by-replace: track the target price on each order's own side.
	var haveBid, haveAsk bool
	for _, order := range live {
		target := r.targetPrice(plan, order.Side)
		if target == 0 {
			continue
		}
		r.markSide(order.Side, &haveBid, &haveAsk)
		if order.Price == target {
			continue
		}

		prevID := order.ID
		next, err := r.ledger.Replace(ctx, order.ID, allocID(), target, 0, tick)
		if err != nil {
			r.log.Error(ctx, "replace failed during reconcile",
				zap.Uint64("order_id", prevID),
				zap.Int64("target_price", target),
				zap.Error(err))
			continue
		}
		r.jrn.Append(model.NewReplaceEvent(next, prevID, r.position(), tick))
	}

	// Inserts: open any missing side the plan admits.
	if plan.OpenBid && !haveBid {
		r.insert(ctx, model.SideBuy, plan.BidPrice, plan.Volume, tick, allocID)
	}
	if plan.OpenAsk && !haveAsk {
		r.insert(ctx, model.SideSell, plan.AskPrice, plan.Volume, tick, allocID)
	}
}

func (r *Reconciler) insert(ctx context.Context, side model.Side, price, volume int64, tick uint64, allocID func() uint64) {
	order := &model.Order{
		ID:            allocID(),
		Instrument:    r.instrument,
		Side:          side,
		Price:         price,
		Volume:        volume,
		Lifespan:      model.LifespanGoodForDay,
		CreatedAtTick: tick,
	}
	if err := r.ledger.Insert(ctx, order); err != nil {
		return
	}
	r.jrn.Append(model.NewOrderEvent(model.EventTypeInsert, order, r.position(), tick))
}

func (r *Reconciler) targetPrice(plan QuotePlan, side model.Side) int64 {
	if side == model.SideBuy {
		return plan.BidPrice
	}
	return plan.AskPrice
}

func (r *Reconciler) markSide(side model.Side, haveBid, haveAsk *bool) {
	if side == model.SideBuy {
		*haveBid = true
	} else {
		*haveAsk = true
	}
}

func (r *Reconciler) position() int64 {
	return r.positions.Position(r.instrument)
}
