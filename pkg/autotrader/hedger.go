package autotrader

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/journal"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

// Hedger offsets directional exposure created by primary-instrument fills
// with orders in the hedge instrument. Hedge orders go out at the extreme
// admissible tick so they fill immediately; a failed attempt is retried one
// tick more aggressively under a bounded budget, then abandoned.
type Hedger struct {
	params    StrategyParams
	gw        ExecGateway
	positions *PositionBook
	jrn       journal.Journal
	log       *logging.Logger

	instrument model.Instrument
	pending    map[uint64]*model.PendingHedge
	frozen     bool
}

func NewHedger(params StrategyParams, gw ExecGateway, positions *PositionBook, jrn journal.Journal, log *logging.Logger, instrument model.Instrument) *Hedger {
	return &Hedger{
		params:     params,
		gw:         gw,
		positions:  positions,
		jrn:        jrn,
		log:        log,
		instrument: instrument,
		pending:    make(map[uint64]*model.PendingHedge),
	}
}

// Freeze stops all hedge submissions until Resume.
func (h *Hedger) Freeze() { h.frozen = true }

// Resume re-enables hedge submissions.
func (h *Hedger) Resume() { h.frozen = false }

// OnPrimaryFill submits the offsetting hedge for a fill of the primary
// instrument.
func (h *Hedger) OnPrimaryFill(ctx context.Context, trigger *model.Order, fillVolume int64, tick uint64, allocID func() uint64) {
	side := trigger.Side.Opposite()
	ph := &model.PendingHedge{
		OrderID:        allocID(),
		TriggerOrderID: trigger.ID,
		Side:           side,
		Price:          h.extremePrice(side),
		Volume:         fillVolume,
	}
	h.submit(ctx, ph, model.EventTypeHedgeSubmit, 0, tick)
}

// OnHedgeFilled handles the hedge-fill notification. Zero price and volume
// signal a failed attempt and trigger a retry; anything else is a (partial)
// fill that moves the hedge position.
func (h *Hedger) OnHedgeFilled(ctx context.Context, orderID uint64, price, volume int64, tick uint64, allocID func() uint64) error {
	ph, ok := h.pending[orderID]
	if !ok {
		h.log.Error(ctx, "hedge fill for unknown order", zap.Uint64("order_id", orderID))
		return errHedgeNotFound
	}

	if price == 0 && volume == 0 {
		return h.retry(ctx, ph, tick, allocID)
	}

	h.positions.ApplyFill(h.instrument, ph.Side, price, volume)
	h.jrn.Append(h.event(model.EventTypeHedgeFill, ph, 0, tick))
	h.log.Info(ctx, "hedge filled",
		zap.Uint64("order_id", ph.OrderID),
		zap.Uint64("trigger_order_id", ph.TriggerOrderID),
		zap.String("side", string(ph.Side)),
		zap.Int64("price", price),
		zap.Int64("volume", volume),
		zap.Bool("unwind", ph.Unwind),
		zap.Int64("hedge_position", h.positions.Position(h.instrument)))

	if volume < ph.Volume {
		ph.Volume -= volume
		return nil
	}

	excess := volume - ph.Volume
	delete(h.pending, orderID)
	if excess > 0 && !ph.Unwind {
		h.unwind(ctx, ph, excess, tick, allocID)
	}
	return nil
}

// PendingCount reports hedges still in flight.
func (h *Hedger) PendingCount() int {
	return len(h.pending)
}

// Pending returns the in-flight hedge for an order id.
func (h *Hedger) Pending(orderID uint64) (*model.PendingHedge, bool) {
	ph, ok := h.pending[orderID]
	return ph, ok
}

func (h *Hedger) retry(ctx context.Context, ph *model.PendingHedge, tick uint64, allocID func() uint64) error {
	prevID := ph.OrderID
	delete(h.pending, prevID)

	if ph.Retries+1 > h.params.HedgeMaxRetries {
		h.jrn.Append(h.event(model.EventTypeHedgeAbandon, ph, prevID, tick))
		h.log.Error(ctx, "hedge abandoned after retry budget",
			zap.Uint64("order_id", prevID),
			zap.Uint64("trigger_order_id", ph.TriggerOrderID),
			zap.String("side", string(ph.Side)),
			zap.Int64("volume", ph.Volume),
			zap.Int("retries", ph.Retries))
		return errHedgeRetryBudget
	}

	ph.Retries++
	ph.OrderID = allocID()
	if ph.Side == model.SideBuy {
		ph.Price = h.params.ClampPrice(ph.Price + h.params.TickSize)
	} else {
		ph.Price = h.params.ClampPrice(ph.Price - h.params.TickSize)
	}
	h.submit(ctx, ph, model.EventTypeHedgeRetry, prevID, tick)
	return nil
}

func (h *Hedger) unwind(ctx context.Context, ph *model.PendingHedge, excess int64, tick uint64, allocID func() uint64) {
	side := ph.Side.Opposite()
	uw := &model.PendingHedge{
		OrderID:        allocID(),
		TriggerOrderID: ph.TriggerOrderID,
		Side:           side,
		Price:          h.extremePrice(side),
		Volume:         excess,
		Unwind:         true,
	}
	h.submit(ctx, uw, model.EventTypeHedgeSubmit, ph.OrderID, tick)
}

func (h *Hedger) submit(ctx context.Context, ph *model.PendingHedge, evType model.OrderEventType, prevID uint64, tick uint64) {
	if h.frozen {
		h.log.Warn(ctx, "hedge submission skipped while frozen",
			zap.Uint64("order_id", ph.OrderID),
			zap.String("side", string(ph.Side)))
		return
	}

	if err := h.gw.SubmitHedge(ctx, ph.OrderID, ph.Side, ph.Price, ph.Volume); err != nil {
		h.log.Error(ctx, "hedge submission failed",
			zap.Uint64("order_id", ph.OrderID),
			zap.Error(err))
		return
	}

	h.pending[ph.OrderID] = ph
	h.jrn.Append(h.event(evType, ph, prevID, tick))
	h.log.Info(ctx, "hedge submitted",
		zap.Uint64("order_id", ph.OrderID),
		zap.Uint64("trigger_order_id", ph.TriggerOrderID),
		zap.String("side", string(ph.Side)),
		zap.Int64("price", ph.Price),
		zap.Int64("volume", ph.Volume),
		zap.Bool("unwind", ph.Unwind),
		zap.Int("retries", ph.Retries))
}

// extremePrice is the admissible tick that guarantees an immediate fill: the
// lowest for a SELL hedge, the highest for a BUY hedge.
func (h *Hedger) extremePrice(side model.Side) int64 {
	if side == model.SideSell {
		return h.params.MinBidNearestTick()
	}
	return h.params.MaxAskNearestTick()
}

func (h *Hedger) event(evType model.OrderEventType, ph *model.PendingHedge, prevID uint64, tick uint64) *model.OrderEvent {
	order := &model.Order{
		ID:         ph.OrderID,
		Instrument: h.instrument,
		Side:       ph.Side,
		Price:      ph.Price,
		Volume:     ph.Volume,
	}
	ev := model.NewOrderEvent(evType, order, h.positions.Position(h.instrument), tick)
	ev.PrevOrderID = prevID
	return ev
}
