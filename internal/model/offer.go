package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer is a promotion shown on the storefront until EndDate.
// DiscountType: "percentage" | "fixed" | "bogo"
type Offer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"type:varchar(50);not null"`
	Description  string    `gorm:"type:text;not null;default:''"`
	Category     string    `gorm:"type:varchar(50);not null;default:''"`
	Discount     string    `gorm:"type:varchar(50);not null;default:''"`
	Code         string    `gorm:"type:varchar(50);not null;default:''"`
	DiscountType string    `gorm:"type:varchar(20);not null;default:'percentage'"`
	EndDate      time.Time `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
