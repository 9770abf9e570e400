package exchsim

import "errors"

var (
	errBookOrderNotFound  = errors.New("order not on book")
	errInvalidBookOrder   = errors.New("invalid order price or volume")
	errDuplicateBookOrder = errors.New("duplicate order id")
)
