package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderEventType classifies journal records.
type OrderEventType string

const (
	EventTypeInsert       OrderEventType = "Insert"
	EventTypeAmend        OrderEventType = "Amend"
	EventTypeReplace      OrderEventType = "Replace"
	EventTypeCancel       OrderEventType = "Cancel"
	EventTypeFill         OrderEventType = "Fill"
	EventTypeReject       OrderEventType = "Reject"
	EventTypeHedgeSubmit  OrderEventType = "HedgeSubmit"
	EventTypeHedgeFill    OrderEventType = "HedgeFill"
	EventTypeHedgeRetry   OrderEventType = "HedgeRetry"
	EventTypeHedgeAbandon OrderEventType = "HedgeAbandon"
)

// OrderEvent is one journal record. Enough context is captured per record to
// reconstruct a quoting or hedging decision after the fact.
type OrderEvent struct {
	EventID string `gorm:"primaryKey"`
	OrderID uint64
	// PrevOrderID links a replacement or hedge retry to the order it
	// superseded; zero otherwise.
	PrevOrderID uint64
	Type        OrderEventType
	Instrument  Instrument
	Side        Side
	Price       int64
	Volume      int64
	// Notional is the dollar value of the event at the recorded price, for
	// post-hoc P&L reasoning. Prices travel as integer cents.
	Notional  decimal.Decimal `gorm:"type:numeric"`
	Position  int64
	Tick      uint64
	Timestamp time.Time
}

// NewOrderEvent builds a journal record for the given order action.
func NewOrderEvent(evType OrderEventType, order *Order, position int64, tick uint64) *OrderEvent {
	return &OrderEvent{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		Type:       evType,
		Instrument: order.Instrument,
		Side:       order.Side,
		Price:      order.Price,
		Volume:     order.Volume,
		Notional:   Notional(order.Price, order.Volume),
		Position:   position,
		Tick:       tick,
		Timestamp:  time.Now(),
	}
}

// NewReplaceEvent builds a journal record linking a fresh order to the one it
// replaced.
func NewReplaceEvent(order *Order, prevOrderID uint64, position int64, tick uint64) *OrderEvent {
	ev := NewOrderEvent(EventTypeReplace, order, position, tick)
	ev.PrevOrderID = prevOrderID
	return ev
}

// Notional converts an integer cent price times volume into dollars.
func Notional(price, volume int64) decimal.Decimal {
	return decimal.NewFromInt(price * volume).Div(decimal.NewFromInt(100))
}
