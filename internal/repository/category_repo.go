package repository

import (
	"context"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository defines CRUD operations for Category, scoped by catalog.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context, catalog model.Catalog, includeInactive bool) ([]model.Category, error)
	FindByID(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, catalog model.Catalog, name string) (*model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error

	// Used inside transactions: callers must pass the tx instance
	FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Category, error)
	// CreateTx inserts c unless (catalog, name) already exists. created is false on conflict
	// and c is left untouched; callers re-read the winning row.
	CreateTx(tx *gorm.DB, c *model.Category) (created bool, err error)

	DB() *gorm.DB
}

type categoryRepository struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) DB() *gorm.DB { return r.db }

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepository) List(ctx context.Context, catalog model.Catalog, includeInactive bool) ([]model.Category, error) {
	var list []model.Category
	q := r.db.WithContext(ctx).Where("catalog = ?", catalog)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	err := q.Order("name asc").Find(&list).Error
	return list, err
}

func (r *categoryRepository) FindByID(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("catalog = ? AND id = ?", catalog, id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, catalog model.Catalog, name string) (*model.Category, error) {
	return r.FindByNameTx(r.db.WithContext(ctx), catalog, name)
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoryRepository) Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("catalog = ? AND id = ?", catalog, id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByNameTx matches the name exactly; categories are case-sensitive.
func (r *categoryRepository) FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Category, error) {
	var c model.Category
	err := tx.Where("catalog = ? AND name = ?", catalog, name).Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) CreateTx(tx *gorm.DB, c *model.Category) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
