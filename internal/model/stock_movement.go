package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MovementOrder            = "order"
	MovementOrderCancelled   = "order_cancelled"
	MovementManualAdjustment = "manual_adjustment"
)

// StockMovement records every stock change on a product. Rows are never updated.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind        string     `gorm:"type:varchar(30);not null"`
	Quantity    int        `gorm:"not null"` // positive = in, negative = out
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	Reason      string     `gorm:"type:text"`
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // order id when applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
