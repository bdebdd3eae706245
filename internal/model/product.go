package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultStock is the stock a product starts with when none is given.
const DefaultStock = 100

// Product is a drink or cocktail on sale. (Catalog, Name) is the natural key used by
// the bulk importer to decide between insert and update.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Catalog     Catalog         `gorm:"type:varchar(20);not null;uniqueIndex:idx_products_catalog_name"`
	Name        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_catalog_name"`
	Description string          `gorm:"type:text;not null;default:''"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	// Stock is decremented atomically by orders and never drops below zero.
	Stock     int     `gorm:"not null;check:chk_products_stock,stock >= 0"`
	ImageURL  *string `gorm:"type:text"`
	Active    bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
