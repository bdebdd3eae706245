package repository

import (
	"context"
	"time"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	// List returns offers ordered by end date. When activeAt is non-nil only offers
	// ending after it are returned.
	List(ctx context.Context, activeAt *time.Time) ([]model.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	Update(ctx context.Context, o *model.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type offerRepo struct{ db *gorm.DB }

func NewOfferRepository(db *gorm.DB) OfferRepository { return &offerRepo{db: db} }

func (r *offerRepo) Create(ctx context.Context, o *model.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *offerRepo) List(ctx context.Context, activeAt *time.Time) ([]model.Offer, error) {
	var list []model.Offer
	q := r.db.WithContext(ctx)
	if activeAt != nil {
		q = q.Where("end_date > ?", *activeAt)
	}
	err := q.Order("end_date ASC").Find(&list).Error
	return list, err
}

func (r *offerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) Update(ctx context.Context, o *model.Offer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *offerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Offer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
