package store

import (
	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/og"
	"main/internal/schema"
	"main/pkg/conn"
)

// OrderRecord is the persisted view of a retired order.
type OrderRecord struct {
	OrderID    uint64 `gorm:"primaryKey"`
	Pair       string `gorm:"index"`
	StrategyID uint32
	Side       string
	Price      int64
	Qty        int64
	FilledQty  int64
	Status     string
	CreatedAt  int64
	RetiredAt  int64
}

// TableName keeps the audit tables apart from any live schema.
func (OrderRecord) TableName() string { return "audit_orders" }

// FillRecord is the persisted view of one execution.
type FillRecord struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID uint64 `gorm:"index"`
	Pair    string
	Side    string
	Price   int64
	Qty     int64
	Fee     int64
	Ts      int64
}

func (FillRecord) TableName() string { return "audit_fills" }

// Audit persists retired orders and fills for after-the-fact inspection.
// It is write-only from the core's point of view.
type Audit struct {
	db *gorm.DB
}

// NewAudit migrates the audit tables and returns a store.
func NewAudit(client *conn.Client) (*Audit, error) {
	db := client.DB()
	if db == nil {
		return nil, errors.New("nil database client")
	}
	if err := db.AutoMigrate(&OrderRecord{}, &FillRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate audit tables")
	}
	return &Audit{db: db}, nil
}

// RecordRetired stores a terminal order.
func (a *Audit) RecordRetired(pair schema.Pair, o og.Order, retiredAt int64) error {
	record := OrderRecord{
		OrderID:    o.ID,
		Pair:       pair.Name,
		StrategyID: o.StrategyID,
		Side:       o.Side.String(),
		Price:      int64(o.Price),
		Qty:        int64(o.Qty),
		FilledQty:  int64(o.FilledQty),
		Status:     o.State.String(),
		CreatedAt:  o.CreatedAt,
		RetiredAt:  retiredAt,
	}
	if err := a.db.Create(&record).Error; err != nil {
		return errors.Wrapf(err, "record retired order %d", o.ID)
	}
	return nil
}

// RecordFill stores one execution.
func (a *Audit) RecordFill(pair schema.Pair, fill schema.Fill, fee schema.Fee) error {
	record := FillRecord{
		OrderID: fill.OrderID,
		Pair:    pair.Name,
		Side:    fill.Side.String(),
		Price:   int64(fill.Price),
		Qty:     int64(fill.Qty),
		Fee:     int64(fee),
		Ts:      fill.Ts,
	}
	if err := a.db.Create(&record).Error; err != nil {
		return errors.Wrapf(err, "record fill for order %d", fill.OrderID)
	}
	return nil
}
