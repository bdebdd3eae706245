package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products inside one catalog.
// Name is matched exactly (case-sensitive) and is unique per catalog.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Catalog     Catalog   `gorm:"type:varchar(20);not null;uniqueIndex:idx_categories_catalog_name"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_categories_catalog_name"`
	Description string    `gorm:"type:text;not null;default:''"`
	Active      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
