package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(50);not null"`
	Email     string    `gorm:"type:varchar(100);not null"`
	Subject   string    `gorm:"type:varchar(200);not null;default:''"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
