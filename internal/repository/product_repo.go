package repository

import (
	"context"
	"strings"

	"sipndash/internal/dto"
	"sipndash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	UpdateTx(tx *gorm.DB, p *model.Product) error
	SoftDelete(ctx context.Context, catalog model.Catalog, id uuid.UUID) error
	Reactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error
	SetImageURL(ctx context.Context, id uuid.UUID, url string) error

	// Used inside transactions: callers must pass the tx instance
	FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) (created bool, err error)
	UpdateDetailsTx(tx *gorm.DB, id uuid.UUID, description string, price decimal.Decimal, categoryID uuid.UUID) error

	// LockStockTx takes a row lock (FOR UPDATE on Postgres) and returns the current stock.
	LockStockTx(tx *gorm.DB, id uuid.UUID) (int, error)
	// DecrementStockTx subtracts qty in a single conditional UPDATE, flooring at zero.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("catalog = ? AND id = ?", catalog, id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs ignores unknown ids; callers compare lengths to detect them.
func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var list []model.Product
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("catalog = ?", filter.Catalog)

	// Active filter: "false" = inactive, "all" = everything, anything else = active (default)
	switch filter.Active {
	case "false":
		q = q.Where("active = ?", false)
	case "all":
	default:
		q = q.Where("active = ?", true)
	}

	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Category").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.UpdateTx(r.db.WithContext(ctx), p)
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Omit("Category").Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	return r.setActive(ctx, catalog, id, false)
}

func (r *productRepo) Reactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	return r.setActive(ctx, catalog, id, true)
}

func (r *productRepo) setActive(ctx context.Context, catalog model.Catalog, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("catalog = ? AND id = ?", catalog, id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SetImageURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("image_url", url).Error
}

// ── Transactional helpers ───────────────────────────────────────────────────

func (r *productRepo) FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Product, error) {
	var p model.Product
	err := tx.Where("catalog = ? AND name = ?", catalog, name).Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) (bool, error) {
	res := tx.Omit("Category").Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepo) UpdateDetailsTx(tx *gorm.DB, id uuid.UUID, description string, price decimal.Decimal, categoryID uuid.UUID) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"description": description,
		"price":       price,
		"category_id": categoryID,
	}).Error
}

func (r *productRepo) LockStockTx(tx *gorm.DB, id uuid.UUID) (int, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "stock").
		Where("id = ?", id).
		Take(&p).Error
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", qty, qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
