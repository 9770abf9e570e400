package autotrader

import (
	"context"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// ExecGateway is the order-sending boundary. Implementations forward actions
// to the exchange transport; outcomes arrive later through the Trader's
// notification handlers. A returned error means the action could not even be
// handed to the transport, in which case the caller keeps its local state
// unchanged.
type ExecGateway interface {
	SubmitInsert(ctx context.Context, orderID uint64, side model.Side, price, volume int64, lifespan model.Lifespan) error
	// SubmitAmendVolume sets the order's new total volume; the venue keeps
	// the remainder after subtracting what has already filled.
	SubmitAmendVolume(ctx context.Context, orderID uint64, volume int64) error
	SubmitCancel(ctx context.Context, orderID uint64) error
	SubmitHedge(ctx context.Context, orderID uint64, side model.Side, price, volume int64) error
}
