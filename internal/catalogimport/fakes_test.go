package catalogimport

import (
	"context"
	"errors"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memDB is an in-memory catalog. The fake TxRunner snapshots it before each
// batch and restores the snapshot when the batch fails.
type memDB struct {
	categories map[string]model.Category
	products   map[string]model.Product
	history    []model.PriceHistory

	failProduct  string // product name whose write fails with errDisk
	raceProducts bool   // CreateTx reports a conflict after inserting on behalf of another writer
}

var errDisk = errors.New("disk full")

func newMemDB() *memDB {
	return &memDB{
		categories: map[string]model.Category{},
		products:   map[string]model.Product{},
	}
}

func key(catalog model.Catalog, name string) string { return string(catalog) + "|" + name }

func (m *memDB) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	cats := make(map[string]model.Category, len(m.categories))
	for k, v := range m.categories {
		cats[k] = v
	}
	prods := make(map[string]model.Product, len(m.products))
	for k, v := range m.products {
		prods[k] = v
	}
	hist := append([]model.PriceHistory(nil), m.history...)

	if err := fn(nil); err != nil {
		m.categories, m.products, m.history = cats, prods, hist
		return err
	}
	return ctx.Err()
}

type fakeCategories struct{ db *memDB }

func (f fakeCategories) FindByNameTx(_ *gorm.DB, catalog model.Catalog, name string) (*model.Category, error) {
	c, ok := f.db.categories[key(catalog, name)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f fakeCategories) CreateTx(_ *gorm.DB, c *model.Category) (bool, error) {
	k := key(c.Catalog, c.Name)
	if _, ok := f.db.categories[k]; ok {
		return false, nil
	}
	c.ID = uuid.New()
	f.db.categories[k] = *c
	return true, nil
}

type fakeProducts struct{ db *memDB }

func (f fakeProducts) FindByNameTx(_ *gorm.DB, catalog model.Catalog, name string) (*model.Product, error) {
	p, ok := f.db.products[key(catalog, name)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f fakeProducts) CreateTx(_ *gorm.DB, p *model.Product) (bool, error) {
	if p.Name == f.db.failProduct {
		return false, errDisk
	}
	k := key(p.Catalog, p.Name)
	if _, ok := f.db.products[k]; ok {
		return false, nil
	}
	if f.db.raceProducts {
		winner := *p
		winner.ID = uuid.New()
		winner.Price = decimal.NewFromInt(1)
		f.db.products[k] = winner
		return false, nil
	}
	p.ID = uuid.New()
	f.db.products[k] = *p
	return true, nil
}

func (f fakeProducts) UpdateDetailsTx(_ *gorm.DB, id uuid.UUID, description string, price decimal.Decimal, categoryID uuid.UUID) error {
	for k, p := range f.db.products {
		if p.ID != id {
			continue
		}
		if p.Name == f.db.failProduct {
			return errDisk
		}
		p.Description = description
		p.Price = price
		p.CategoryID = categoryID
		f.db.products[k] = p
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeHistory struct{ db *memDB }

func (f fakeHistory) CreateTx(_ *gorm.DB, h *model.PriceHistory) error {
	f.db.history = append(f.db.history, *h)
	return nil
}

var (
	_ CategoryStore     = fakeCategories{}
	_ ProductStore      = fakeProducts{}
	_ PriceHistoryStore = fakeHistory{}
)

func newTestExecutor(db *memDB, p Policy) *Executor {
	return NewExecutor(fakeCategories{db}, fakeProducts{db}, fakeHistory{db}, db.runTx, p)
}

func newTestImporter(db *memDB, p Policy) *Importer {
	return NewImporter(fakeCategories{db}, fakeProducts{db}, fakeHistory{db}, db.runTx, p)
}

func row(index int, name, category, price string) Row {
	return Row{Index: index, Fields: map[string]string{
		FieldName:     name,
		FieldCategory: category,
		FieldPrice:    price,
	}}
}
