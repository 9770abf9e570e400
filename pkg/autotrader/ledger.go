package autotrader

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/riskrule"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

// Ledger is the single source of truth for every order the strategy has
// outstanding. All mutations forward the action to the exec gateway and roll
// back the local entry when the gateway refuses it, so the map never holds a
// half-applied state.
type Ledger struct {
	gw    ExecGateway
	log   *logging.Logger
	rules []riskrule.RiskRule

	orders map[uint64]*model.Order
}

func NewLedger(gw ExecGateway, log *logging.Logger, rules []riskrule.RiskRule) *Ledger {
	return &Ledger{
		gw:     gw,
		log:    log,
		rules:  rules,
		orders: make(map[uint64]*model.Order),
	}
}

// Insert records a new order and forwards the submission. Orders with a zero
// price or volume, duplicate ids, or risk-rule violations are rejected before
// anything is sent.
func (l *Ledger) Insert(ctx context.Context, order *model.Order) error {
	if order.Price <= 0 || order.Volume <= 0 {
		l.log.Warn(ctx, "rejecting invalid insert",
			zap.Uint64("order_id", order.ID),
			zap.Int64("price", order.Price),
			zap.Int64("volume", order.Volume))
		return errInvalidOrder
	}
	if _, ok := l.orders[order.ID]; ok {
		return errDuplicateOrder
	}
	for _, rule := range l.rules {
		if err := rule.Check(order); err != nil {
			l.log.Warn(ctx, "risk rule rejected insert",
				zap.Uint64("order_id", order.ID),
				zap.Error(err))
			return err
		}
	}

	l.orders[order.ID] = order
	if err := l.gw.SubmitInsert(ctx, order.ID, order.Side, order.Price, order.Volume, order.Lifespan); err != nil {
		delete(l.orders, order.ID)
		l.log.Error(ctx, "insert submission failed",
			zap.Uint64("order_id", order.ID),
			zap.Error(err))
		return err
	}

	l.log.Info(ctx, "order inserted",
		zap.Uint64("order_id", order.ID),
		zap.String("instrument", string(order.Instrument)),
		zap.String("side", string(order.Side)),
		zap.Int64("price", order.Price),
		zap.Int64("volume", order.Volume),
		zap.String("lifespan", string(order.Lifespan)))
	return nil
}

// AmendVolume sends a volume amendment. The volume is the new TOTAL for the
// order, the venue's contract: the remainder after the amend is the total
// minus what has already filled, and a total at or below the filled quantity
// leaves nothing resting so the entry is cleared.
func (l *Ledger) AmendVolume(ctx context.Context, orderID uint64, volume int64) error {
	order, ok := l.orders[orderID]
	if !ok {
		l.log.Error(ctx, "amend for unknown order", zap.Uint64("order_id", orderID))
		return errOrderNotFound
	}
	if err := l.gw.SubmitAmendVolume(ctx, orderID, volume); err != nil {
		return err
	}

	remaining := volume - order.Filled
	if remaining <= 0 {
		delete(l.orders, orderID)
		l.log.Info(ctx, "order volume amended below filled, clearing from ledger",
			zap.Uint64("order_id", orderID),
			zap.Int64("volume", volume),
			zap.Int64("filled", order.Filled))
		return nil
	}

	order.Volume = remaining
	l.log.Info(ctx, "order volume amended",
		zap.Uint64("order_id", orderID),
		zap.Int64("volume", volume),
		zap.Int64("remaining", remaining))
	return nil
}

// Cancel removes the entry and forwards the cancellation. A gateway refusal
// restores the entry.
func (l *Ledger) Cancel(ctx context.Context, orderID uint64) error {
	order, ok := l.orders[orderID]
	if !ok {
		l.log.Error(ctx, "cancel for unknown order", zap.Uint64("order_id", orderID))
		return errOrderNotFound
	}

	delete(l.orders, orderID)
	if err := l.gw.SubmitCancel(ctx, orderID); err != nil {
		l.orders[orderID] = order
		return err
	}

	l.log.Info(ctx, "order cancelled",
		zap.Uint64("order_id", orderID),
		zap.Int64("price", order.Price),
		zap.Int64("volume", order.Volume))
	return nil
}

// Replace reprices an order by cancelling it and inserting a fresh one seeded
// with the old order's fields. Zero overrides keep the old value. The two
// exchange identifiers never alias the same logical order: if the cancel
// fails the insert is not attempted.
func (l *Ledger) Replace(ctx context.Context, orderID, newID uint64, newPrice, newVolume int64, tick uint64) (*model.Order, error) {
	old, ok := l.orders[orderID]
	if !ok {
		l.log.Error(ctx, "replace for unknown order", zap.Uint64("order_id", orderID))
		return nil, errOrderNotFound
	}

	next := old.Clone()
	next.ID = newID
	next.Filled = 0
	next.CreatedAtTick = tick
	if newPrice != 0 {
		next.Price = newPrice
	}
	if newVolume != 0 {
		next.Volume = newVolume
	}

	if err := l.Cancel(ctx, orderID); err != nil {
		return nil, err
	}
	if err := l.Insert(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ApplyFill decrements the stored volume and erases the entry once the order
// is fully consumed. Returns the order and whether it is now gone.
func (l *Ledger) ApplyFill(ctx context.Context, orderID uint64, volume int64) (*model.Order, bool, error) {
	order, ok := l.orders[orderID]
	if !ok {
		return nil, false, errOrderNotFound
	}

	order.Volume -= volume
	order.Filled += volume
	if order.Volume <= 0 {
		delete(l.orders, orderID)
		l.log.Info(ctx, "order fully filled, clearing from ledger",
			zap.Uint64("order_id", orderID))
		return order, true, nil
	}
	return order, false, nil
}

// Remove drops an entry without sending anything, for exchange-confirmed
// terminal states.
func (l *Ledger) Remove(orderID uint64) bool {
	if _, ok := l.orders[orderID]; !ok {
		return false
	}
	delete(l.orders, orderID)
	return true
}

// Get returns the ledger's view of one order.
func (l *Ledger) Get(orderID uint64) (*model.Order, bool) {
	order, ok := l.orders[orderID]
	return order, ok
}

// LiveCount counts resting orders for one instrument.
func (l *Ledger) LiveCount(instrument model.Instrument) int {
	count := 0
	for _, order := range l.orders {
		if order.Instrument == instrument {
			count++
		}
	}
	return count
}

// Live returns the resting orders for one instrument, ordered by id so
// reconciliation walks them deterministically.
func (l *Ledger) Live(instrument model.Instrument) []*model.Order {
	var out []*model.Order
	for _, order := range l.orders {
		if order.Instrument == instrument {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingVolume sums resting volume for one side of one instrument. The
// planner uses it to bound worst-case fills against the position limit.
func (l *Ledger) PendingVolume(instrument model.Instrument, side model.Side) int64 {
	var total int64
	for _, order := range l.orders {
		if order.Instrument == instrument && order.Side == side {
			total += order.Volume
		}
	}
	return total
}
