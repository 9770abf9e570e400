package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

type OrderEventSQLRepo struct {
	db *gorm.DB
}

func NewOrderEventSQLRepo(db *gorm.DB) *OrderEventSQLRepo {
	return &OrderEventSQLRepo{
		db: db,
	}
}

func (s *OrderEventSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *OrderEventSQLRepo) Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error) {
	return record, s.dbWithContext(ctx).Create(record).Error
}

func (s *OrderEventSQLRepo) BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error) {
	return records, s.dbWithContext(ctx).Create(records).Error
}

func (s *OrderEventSQLRepo) ListByOrderID(ctx context.Context, orderID uint64) ([]*model.OrderEvent, error) {
	var records []*model.OrderEvent
	err := s.dbWithContext(ctx).
		Where("order_id = ?", orderID).
		Order("timestamp asc").
		Find(&records).Error
	return records, err
}
