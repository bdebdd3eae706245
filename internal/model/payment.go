package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment tracks one M-Pesa STK push for an order.
// Status: "pending" until the gateway callback (or a status query) settles it as "paid" | "failed".
type Payment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Provider          string    `gorm:"type:varchar(20);not null;default:'mpesa'"`
	Phone             string    `gorm:"type:varchar(20);not null"`
	Amount            int64     `gorm:"not null"`
	MerchantRequestID string    `gorm:"type:varchar(100)"`
	CheckoutRequestID string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Status            string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	ResultCode        *int
	ResultDesc        *string
	ReceiptNumber     *string `gorm:"type:varchar(50)"`
	// Reconciliation fields, used by the retry cron when the callback never arrives
	RetryCount  int        `gorm:"not null;default:0"`
	NextCheckAt *time.Time `gorm:"index"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
