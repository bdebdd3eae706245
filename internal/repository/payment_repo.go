package repository

import (
	"context"
	"time"

	"sipndash/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error)
	// ListDueForCheck returns pending payments whose callback has not arrived and whose
	// next status query is due.
	ListDueForCheck(ctx context.Context, now time.Time, limit int) ([]model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
	UpdateTx(tx *gorm.DB, p *model.Payment) error
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("checkout_request_id = ?", checkoutRequestID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListDueForCheck(ctx context.Context, now time.Time, limit int) ([]model.Payment, error) {
	var list []model.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_check_at IS NOT NULL AND next_check_at <= ?", model.PaymentStatusPending, now).
		Order("next_check_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *paymentRepo) Update(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *paymentRepo) UpdateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Save(p).Error
}
