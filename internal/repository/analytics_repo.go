package repository

import (
	"context"
	"time"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductSales is one row of the top-products aggregate.
type ProductSales struct {
	ProductID uuid.UUID
	Name      string
	TotalSold int64
}

type AnalyticsRepository interface {
	CreateEvent(ctx context.Context, e *model.AnalyticsEvent) error
	CountUsers(ctx context.Context) (int64, error)
	CountActiveProducts(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	// Revenue sums non-cancelled orders that are paid or need no payment.
	Revenue(ctx context.Context) (decimal.Decimal, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	// EventTimes returns the creation time of every event since the given instant.
	EventTimes(ctx context.Context, since time.Time) ([]time.Time, error)
}

type analyticsRepo struct{ db *gorm.DB }

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository { return &analyticsRepo{db: db} }

func (r *analyticsRepo) CreateEvent(ctx context.Context, e *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *analyticsRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *analyticsRepo) CountActiveProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = ?", true).Count(&n).Error
	return n, err
}

func (r *analyticsRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error
	return n, err
}

func (r *analyticsRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total)").
		Where("status <> ? AND payment_status IN ?", model.OrderStatusCancelled,
			[]string{model.PaymentStatusPaid, model.PaymentStatusNotRequired}).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *analyticsRepo) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *analyticsRepo) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, products.name AS name, SUM(order_items.quantity) AS total_sold").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("order_items.product_id, products.name").
		Order("total_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) EventTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &times).Error
	return times, err
}
