package autotrader

import "errors"

var (
	errOrderNotFound    = errors.New("order not found")
	errInvalidOrder     = errors.New("invalid order price or volume")
	errDuplicateOrder   = errors.New("duplicate order id")
	errHedgeNotFound    = errors.New("pending hedge not found")
	errTraderFrozen     = errors.New("trader frozen after disconnect")
	errHedgeRetryBudget = errors.New("hedge retry budget exhausted")
)
