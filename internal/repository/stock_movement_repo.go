package repository

import (
	"context"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementFilter narrows the movement log. A nil ProductID lists every product.
type StockMovementFilter struct {
	ProductID *uuid.UUID
	Page      int
	Limit     int
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	// ListByReferenceTx returns the movements of one kind recorded against ref, oldest first.
	ListByReferenceTx(tx *gorm.DB, ref uuid.UUID, kind string) ([]model.StockMovement, error)
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Omit("Product").Create(m).Error
}

func (r *stockMovementRepo) ListByReferenceTx(tx *gorm.DB, ref uuid.UUID, kind string) ([]model.StockMovement, error) {
	var rows []model.StockMovement
	err := tx.Where("reference_id = ? AND kind = ?", ref, kind).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.StockMovement
	err := q.Preload("Product").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&rows).Error
	return rows, total, err
}
