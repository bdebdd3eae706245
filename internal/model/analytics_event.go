package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsEvent is a storefront tracking event. EventData holds the raw JSON sent by the client.
type AnalyticsEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType string    `gorm:"type:varchar(50);not null;index"`
	EventData string    `gorm:"type:text;not null;default:'{}'"`
	UserID    *string   `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"index"`
}

func (e *AnalyticsEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
