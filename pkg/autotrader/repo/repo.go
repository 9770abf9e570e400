package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	OrderEvent() IOrderEvent
}

type Repo struct {
	journalDB *gorm.DB
}

func NewRepo(journalDB *gorm.DB) IRepo {
	return &Repo{
		journalDB: journalDB,
	}
}

func (r *Repo) OrderEvent() IOrderEvent {
	return NewOrderEventSQLRepo(r.journalDB)
}
