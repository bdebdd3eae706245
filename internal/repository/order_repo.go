package repository

import (
	"context"

	"sipndash/internal/dto"
	"sipndash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// CreateTx inserts the order and its Items in one statement batch.
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdateTx locks the order row so concurrent status changes serialise.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	// UpdatePaymentStatusTx returns gorm.ErrRecordNotFound when no order has id.
	UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Omit("Customer").Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&o).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", o.ID).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	switch filter.Seen {
	case "true":
		q = q.Where("seen = ?", true)
	case "false":
		q = q.Where("seen = ?", false)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Customer").Preload("Items.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepo) UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	res := tx.Model(&model.Order{}).Where("id = ?", id).Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
