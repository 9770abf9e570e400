package repo

import (
	"context"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

type IOrderEvent interface {
	Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error)
	BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error)
	ListByOrderID(ctx context.Context, orderID uint64) ([]*model.OrderEvent, error)
}
