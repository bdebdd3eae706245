package repository

import (
	"context"
	"errors"
	"strings"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	// UpsertByEmailTx returns the customer identified by c.Email, refreshing its contact
	// details, or inserts c when the email is new.
	UpsertByEmailTx(tx *gorm.DB, c *model.Customer) (*model.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	// List matches search against name, email and phone, newest customers first.
	List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) UpsertByEmailTx(tx *gorm.DB, c *model.Customer) (*model.Customer, error) {
	var existing model.Customer
	err := tx.Where("email = ?", c.Email).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Create(c).Error; err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Name = c.Name
	existing.Phone = c.Phone
	existing.Address = c.Address
	existing.Latitude = c.Latitude
	existing.Longitude = c.Longitude
	if err := tx.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.Customer
	err := q.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, err
}
