package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PriceSourceImport = "import"
	PriceSourceManual = "manual"
)

// PriceHistory is an immutable record of one product price change.
type PriceHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PriceBefore decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PriceAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Source      string          `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
}

// TableName keeps the history table singular, matching the SQL migrations.
func (PriceHistory) TableName() string { return "price_history" }

func (h *PriceHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
