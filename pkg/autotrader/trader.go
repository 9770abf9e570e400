package autotrader

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/journal"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/riskrule"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

// Trader is the single-threaded strategy core. Every exchange callback runs
// to completion before the next one is processed; no handler blocks. It owns
// the event tick counter and the order-id allocator so ids are unique across
// quotes and hedges.
type Trader struct {
	params StrategyParams
	log    *logging.Logger
	jrn    journal.Journal

	ledger     *Ledger
	positions  *PositionBook
	planner    *QuotePlanner
	reconciler *Reconciler
	hedger     *Hedger

	primary model.Instrument
	hedge   model.Instrument

	nextID  uint64
	tick    uint64
	signals ImbalanceSignals
	frozen  bool
}

func NewTrader(params StrategyParams, gw ExecGateway, jrn journal.Journal, log *logging.Logger) *Trader {
	rules := []riskrule.RiskRule{
		riskrule.NewTickSizeRule(params.TickSize),
		riskrule.NewPriceBandRule(model.InstrumentETF, params.MinBidNearestTick(), params.MaxAskNearestTick()),
	}

	ledger := NewLedger(gw, log, rules)
	positions := NewPositionBook()

	t := &Trader{
		params:     params,
		log:        log,
		jrn:        jrn,
		ledger:     ledger,
		positions:  positions,
		planner:    NewQuotePlanner(params),
		reconciler: NewReconciler(ledger, positions, jrn, log, model.InstrumentETF),
		hedger:     NewHedger(params, gw, positions, jrn, log, model.InstrumentFuture),
		primary:    model.InstrumentETF,
		hedge:      model.InstrumentFuture,
	}
	return t
}

// Ledger exposes the order ledger, primarily for inspection.
func (t *Trader) Ledger() *Ledger { return t.ledger }

// Positions exposes the position book, primarily for inspection.
func (t *Trader) Positions() *PositionBook { return t.positions }

// Hedger exposes the hedge state machine, primarily for inspection.
func (t *Trader) Hedger() *Hedger { return t.hedger }

// OnOrderBook handles a top-of-book snapshot. Hedge-instrument snapshots
// refresh the imbalance signals; primary-instrument snapshots trigger a full
// quote replan and reconciliation.
func (t *Trader) OnOrderBook(ctx context.Context, book *model.BookUpdate) error {
	t.tick++

	if book.Instrument == t.hedge {
		t.signals = ComputeSignals(book)
		t.log.Debug(ctx, "imbalance signals updated",
			zap.Uint64("sequence", book.SequenceNumber),
			zap.Bool("buy", t.signals.Buy),
			zap.Bool("sell", t.signals.Sell))
		return nil
	}
	if book.Instrument != t.primary {
		return nil
	}
	if t.frozen {
		return errTraderFrozen
	}

	plan := t.planner.Plan(book, t.signals,
		t.positions.Position(t.primary),
		t.ledger.PendingVolume(t.primary, model.SideBuy),
		t.ledger.PendingVolume(t.primary, model.SideSell))

	t.log.Debug(ctx, "quote plan",
		zap.Uint64("sequence", book.SequenceNumber),
		zap.Int64("bid", plan.BidPrice),
		zap.Int64("ask", plan.AskPrice),
		zap.Bool("open_bid", plan.OpenBid),
		zap.Bool("open_ask", plan.OpenAsk))

	t.reconciler.Converge(ctx, plan, t.tick, t.allocID)
	return nil
}

// OnTradeTicks handles the periodic trade report. It carries no actionable
// state for the quoting logic but is logged for replay alignment.
func (t *Trader) OnTradeTicks(ctx context.Context, ticks *model.BookUpdate) {
	t.log.Debug(ctx, "trade ticks",
		zap.String("instrument", string(ticks.Instrument)),
		zap.Uint64("sequence", ticks.SequenceNumber))
}

// OnOrderFilled handles a (partial) fill of one of the trader's own primary
// orders: position moves, the journal records the fill, and the hedger sends
// the offsetting hedge. Fills for unknown ids are ignored.
func (t *Trader) OnOrderFilled(ctx context.Context, orderID uint64, price, volume int64) error {
	t.tick++

	order, ok := t.ledger.Get(orderID)
	if !ok {
		t.log.Warn(ctx, "fill for unknown order", zap.Uint64("order_id", orderID))
		return errOrderNotFound
	}

	t.positions.ApplyFill(t.primary, order.Side, price, volume)
	filled := order.Clone()
	filled.Price = price
	filled.Volume = volume
	t.jrn.Append(model.NewOrderEvent(model.EventTypeFill, filled, t.positions.Position(t.primary), t.tick))

	if _, _, err := t.ledger.ApplyFill(ctx, orderID, volume); err != nil {
		return err
	}

	t.log.Info(ctx, "order filled",
		zap.Uint64("order_id", orderID),
		zap.String("side", string(order.Side)),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
		zap.Int64("position", t.positions.Position(t.primary)))

	t.hedger.OnPrimaryFill(ctx, order, volume, t.tick, t.allocID)
	return nil
}

// OnOrderStatus handles the authoritative lifecycle report for an order. A
// zero remaining volume is terminal: fills were already applied through
// OnOrderFilled, so an order still in the ledger at that point was cancelled
// and is journalled as such.
func (t *Trader) OnOrderStatus(ctx context.Context, orderID uint64, fillVolume, remainingVolume, feesCents int64) {
	t.tick++

	if feesCents != 0 {
		t.positions.AddFees(feesCents)
	}
	if remainingVolume > 0 {
		return
	}

	order, ok := t.ledger.Get(orderID)
	if !ok {
		return
	}
	t.ledger.Remove(orderID)
	if fillVolume == 0 {
		t.jrn.Append(model.NewOrderEvent(model.EventTypeCancel, order, t.positions.Position(t.primary), t.tick))
	}
	t.log.Info(ctx, "order closed by status",
		zap.Uint64("order_id", orderID),
		zap.Int64("fill_volume", fillVolume))
}

// OnHedgeFilled forwards the hedge-fill notification to the hedge state
// machine.
func (t *Trader) OnHedgeFilled(ctx context.Context, orderID uint64, price, volume int64) error {
	t.tick++
	return t.hedger.OnHedgeFilled(ctx, orderID, price, volume, t.tick, t.allocID)
}

// OnError handles an exchange error report. When the error names one of our
// live orders the order is treated as dead: journalled as rejected and
// dropped from the ledger.
func (t *Trader) OnError(ctx context.Context, orderID uint64, message string) {
	t.tick++
	t.log.Error(ctx, "exchange error",
		zap.Uint64("order_id", orderID),
		zap.String("message", message))

	if orderID == 0 {
		return
	}
	order, ok := t.ledger.Get(orderID)
	if !ok {
		return
	}
	t.ledger.Remove(orderID)
	t.jrn.Append(model.NewOrderEvent(model.EventTypeReject, order, t.positions.Position(t.primary), t.tick))
}

// OnDisconnect freezes the trader: no further submissions of any kind until
// Resume. Resting orders are left as-is, they cannot be acted on without a
// session.
func (t *Trader) OnDisconnect(ctx context.Context) {
	t.frozen = true
	t.hedger.Freeze()
	t.log.Warn(ctx, "session lost, trader frozen",
		zap.Int("live_orders", t.ledger.LiveCount(t.primary)),
		zap.Int64("position", t.positions.Position(t.primary)))
}

// Resume lifts the freeze after a session is re-established.
func (t *Trader) Resume(ctx context.Context) {
	t.frozen = false
	t.hedger.Resume()
	t.log.Info(ctx, "trader resumed")
}

func (t *Trader) allocID() uint64 {
	t.nextID++
	return t.nextID
}
