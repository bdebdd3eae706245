package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusProcessing = "Processing"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

const (
	PaymentMethodCash  = "cash"
	PaymentMethodMpesa = "mpesa"
)

// Order.PaymentStatus values. Cash orders never need a gateway confirmation.
const (
	PaymentStatusNotRequired = "not_required"
	PaymentStatusPending     = "pending"
	PaymentStatusPaid        = "paid"
	PaymentStatusFailed      = "failed"
)

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'Processing';index"`
	Seen          bool            `gorm:"not null;default:false"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;default:'cash'"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'not_required'"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Latitude      *float64
	Longitude     *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Customer *Customer  `gorm:"foreignKey:CustomerID"`
	Items    []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one order line. UnitPrice is the product price at the time of the order.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
