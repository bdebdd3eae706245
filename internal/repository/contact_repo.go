package repository

import (
	"context"

	"sipndash/internal/model"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, m *model.ContactMessage) error
	List(ctx context.Context, page, limit int) ([]model.ContactMessage, int64, error)
}

type contactRepo struct{ db *gorm.DB }

func NewContactRepository(db *gorm.DB) ContactRepository { return &contactRepo{db: db} }

func (r *contactRepo) Create(ctx context.Context, m *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *contactRepo) List(ctx context.Context, page, limit int) ([]model.ContactMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.ContactMessage{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ContactMessage
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, err
}
