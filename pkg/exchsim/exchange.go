package exchsim

import (
	"context"

	"github.com/gammazero/deque"
	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

// ambientIDBase keeps simulator-owned liquidity ids out of the client's
// order-id space.
const ambientIDBase uint64 = 1 << 32

// Handler receives the exchange's event stream. Events are delivered one at
// a time, strictly after the submission that caused them has returned.
type Handler interface {
	OnOrderBook(ctx context.Context, book *model.BookUpdate) error
	OnTradeTicks(ctx context.Context, ticks *model.BookUpdate)
	OnOrderFilled(ctx context.Context, orderID uint64, price, volume int64) error
	OnOrderStatus(ctx context.Context, orderID uint64, fillVolume, remainingVolume, feesCents int64)
	OnHedgeFilled(ctx context.Context, orderID uint64, price, volume int64) error
	OnError(ctx context.Context, orderID uint64, message string)
	OnDisconnect(ctx context.Context)
}

// Exchange is a deterministic in-process venue over the two instrument
// books. It satisfies the strategy's execution gateway: submissions mutate
// the books synchronously while the resulting callbacks are queued and
// drained after the outermost call returns, so a handler that reacts to a
// fill by submitting again never re-enters itself.
type Exchange struct {
	log     *logging.Logger
	handler Handler

	books map[model.Instrument]*Book

	events      deque.Deque[func(context.Context)]
	dispatching bool

	// takerFeeCents is charged per lot on aggressive executions and reported
	// through order-status messages.
	takerFeeCents int64

	nextAmbientID uint64
}

func NewExchange(log *logging.Logger, takerFeeCents int64) *Exchange {
	return &Exchange{
		log: log,
		books: map[model.Instrument]*Book{
			model.InstrumentETF:    NewBook(model.InstrumentETF),
			model.InstrumentFuture: NewBook(model.InstrumentFuture),
		},
		takerFeeCents: takerFeeCents,
		nextAmbientID: ambientIDBase,
	}
}

// SetHandler connects the event consumer. Must be called before any
// submission or publication.
func (e *Exchange) SetHandler(h Handler) {
	e.handler = h
}

// SubmitInsert places a client order on the primary book. Malformed and
// duplicate orders are refused synchronously; fills and the order-status
// report arrive through the handler.
func (e *Exchange) SubmitInsert(ctx context.Context, orderID uint64, side model.Side, price, volume int64, lifespan model.Lifespan) error {
	book := e.books[model.InstrumentETF]
	order := &bookOrder{id: orderID, side: side, price: price, volume: volume, client: true}

	matches, err := book.insert(order, lifespan)
	if err != nil {
		return err
	}

	for _, m := range matches {
		e.emitFill(order, m.price, m.volume, true)
		e.emitMakerFill(m)
	}
	e.enqueueStatus(order)

	e.drain(ctx)
	return nil
}

// SubmitAmendVolume resets a client order's total volume. Amending at or
// below the filled amount removes the order.
func (e *Exchange) SubmitAmendVolume(ctx context.Context, orderID uint64, volume int64) error {
	book := e.books[model.InstrumentETF]
	order, removed, err := book.amend(orderID, volume)
	if err != nil {
		return err
	}

	if removed {
		e.enqueueStatus(order)
	}
	e.drain(ctx)
	return nil
}

// SubmitCancel pulls a client order from the primary book and reports the
// terminal status.
func (e *Exchange) SubmitCancel(ctx context.Context, orderID uint64) error {
	book := e.books[model.InstrumentETF]
	order, err := book.cancel(orderID)
	if err != nil {
		return err
	}

	e.enqueueStatus(order)
	e.drain(ctx)
	return nil
}

// SubmitHedge executes a fill-and-kill order against the hedge book. The
// result callback reports the volume-weighted price and filled volume, or
// zeros when no liquidity crossed.
func (e *Exchange) SubmitHedge(ctx context.Context, orderID uint64, side model.Side, price, volume int64) error {
	book := e.books[model.InstrumentFuture]
	order := &bookOrder{id: orderID, side: side, price: price, volume: volume, client: true}

	matches, err := book.insert(order, model.LifespanFillAndKill)
	if err != nil {
		return err
	}

	var filledVolume, notional int64
	for _, m := range matches {
		filledVolume += m.volume
		notional += m.price * m.volume
		e.emitMakerFill(m)
	}

	avgPrice := int64(0)
	if filledVolume > 0 {
		avgPrice = notional / filledVolume
	}
	e.enqueue(func(ctx context.Context) {
		if err := e.handler.OnHedgeFilled(ctx, orderID, avgPrice, filledVolume); err != nil {
			e.log.Warn(ctx, "hedge fill handler error",
				zap.Uint64("order_id", orderID), zap.Error(err))
		}
	})

	e.drain(ctx)
	return nil
}

// AddLiquidity rests (or aggresses with) simulator-owned volume. Crossing a
// client quote fills it and reports through the handler, which is how the
// trader's resting quotes get executed in tests and local runs.
func (e *Exchange) AddLiquidity(ctx context.Context, instrument model.Instrument, side model.Side, price, volume int64) error {
	book := e.books[instrument]
	e.nextAmbientID++
	order := &bookOrder{id: e.nextAmbientID, side: side, price: price, volume: volume}

	matches, err := book.insert(order, model.LifespanGoodForDay)
	if err != nil {
		return err
	}

	for _, m := range matches {
		e.emitMakerFill(m)
	}
	e.drain(ctx)
	return nil
}

// PublishBook delivers a top-of-book snapshot for one instrument.
func (e *Exchange) PublishBook(ctx context.Context, instrument model.Instrument) {
	update := e.books[instrument].Snapshot()
	e.enqueue(func(ctx context.Context) {
		if err := e.handler.OnOrderBook(ctx, update); err != nil {
			e.log.Warn(ctx, "order book handler error",
				zap.String("instrument", string(instrument)), zap.Error(err))
		}
	})
	e.drain(ctx)
}

// PublishTradeTicks delivers a trade-tick report for one instrument.
func (e *Exchange) PublishTradeTicks(ctx context.Context, instrument model.Instrument) {
	update := e.books[instrument].Snapshot()
	e.enqueue(func(ctx context.Context) {
		e.handler.OnTradeTicks(ctx, update)
	})
	e.drain(ctx)
}

// Disconnect signals session loss to the handler.
func (e *Exchange) Disconnect(ctx context.Context) {
	e.enqueue(func(ctx context.Context) {
		e.handler.OnDisconnect(ctx)
	})
	e.drain(ctx)
}

// emitFill queues the fill callback for a client taker execution. Taker
// fees accrue per lot.
func (e *Exchange) emitFill(order *bookOrder, price, volume int64, taker bool) {
	if !order.client {
		return
	}
	if taker {
		order.fees += e.takerFeeCents * volume
	}
	id := order.id
	e.enqueue(func(ctx context.Context) {
		if err := e.handler.OnOrderFilled(ctx, id, price, volume); err != nil {
			e.log.Warn(ctx, "fill handler error",
				zap.Uint64("order_id", id), zap.Error(err))
		}
	})
}

// emitMakerFill queues callbacks for the resting side of a match when it
// belongs to the client, including the terminal status once fully consumed.
func (e *Exchange) emitMakerFill(m match) {
	if !m.maker.client {
		return
	}
	e.emitFill(m.maker, m.price, m.volume, false)
	if m.maker.volume == 0 {
		e.enqueueStatus(m.maker)
	}
}

func (e *Exchange) enqueueStatus(order *bookOrder) {
	if !order.client {
		return
	}
	id, filled, remaining, fees := order.id, order.filled, order.volume, order.fees
	e.enqueue(func(ctx context.Context) {
		e.handler.OnOrderStatus(ctx, id, filled, remaining, fees)
	})
}

func (e *Exchange) enqueue(ev func(context.Context)) {
	e.events.PushBack(ev)
}

// drain delivers queued events in order. Nested submissions made by the
// handler enqueue further events that the same loop picks up; re-entrant
// drains are no-ops.
func (e *Exchange) drain(ctx context.Context) {
	if e.dispatching || e.handler == nil {
		return
	}
	e.dispatching = true
	defer func() { e.dispatching = false }()

	for e.events.Len() > 0 {
		ev := e.events.PopFront()
		ev(ctx)
	}
}
