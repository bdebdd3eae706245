package catalogimport

import (
	"context"
	"errors"
	"fmt"

	"sipndash/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Outcome statuses.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
)

// CategoryStore is the category persistence the executor needs. FindByNameTx
// returns gorm.ErrRecordNotFound when no category matches.
type CategoryStore interface {
	FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Category, error)
	CreateTx(tx *gorm.DB, c *model.Category) (created bool, err error)
}

// ProductStore looks products up by their natural key (catalog, name).
type ProductStore interface {
	FindByNameTx(tx *gorm.DB, catalog model.Catalog, name string) (*model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) (created bool, err error)
	UpdateDetailsTx(tx *gorm.DB, id uuid.UUID, description string, price decimal.Decimal, categoryID uuid.UUID) error
}

type PriceHistoryStore interface {
	CreateTx(tx *gorm.DB, h *model.PriceHistory) error
}

// TxRunner runs fn in one transaction bound to ctx. A returned error rolls it back.
type TxRunner func(ctx context.Context, fn func(tx *gorm.DB) error) error

// GormTxRunner runs transactions on db.
func GormTxRunner(db *gorm.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return db.WithContext(ctx).Transaction(fn)
	}
}

// Outcome summarises one import. Errors holds at most MaxErrorsReturned messages;
// ErrorCount counts all of them.
type Outcome struct {
	Created    int
	Updated    int
	Errors     []string
	ErrorCount int
	Status     string
}

func (o *Outcome) addError(limit int, msg string) {
	o.ErrorCount++
	if len(o.Errors) < limit {
		o.Errors = append(o.Errors, msg)
	}
}

type rowResult int

const (
	rowCreated rowResult = iota + 1
	rowUpdated
)

type Executor struct {
	categories CategoryStore
	products   ProductStore
	history    PriceHistoryStore
	runTx      TxRunner
	normalizer Normalizer
	policy     Policy
}

func NewExecutor(categories CategoryStore, products ProductStore, history PriceHistoryStore, runTx TxRunner, p Policy) *Executor {
	return &Executor{
		categories: categories,
		products:   products,
		history:    history,
		runTx:      runTx,
		policy:     p.withDefaults(),
	}
}

// Execute applies rows in batches. A storage failure rolls back only its batch;
// committed batches are kept. Execution stops before the next batch once ctx is done.
func (e *Executor) Execute(ctx context.Context, catalog model.Catalog, rows []Row) *Outcome {
	out := &Outcome{Errors: []string{}}
	size := e.policy.BatchSize

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		first, last := batch[0].Index, batch[len(batch)-1].Index

		if err := ctx.Err(); err != nil {
			out.addError(e.policy.MaxErrorsReturned,
				fmt.Sprintf("rows %d-%d: import cancelled: %v", first, rows[len(rows)-1].Index, err))
			log.Warn().Str("catalog", catalog.String()).Int("from_row", first).Err(err).
				Msg("catalog import: cancelled")
			break
		}

		var (
			created, updated int
			rowErrs          []string
		)
		err := e.runTx(ctx, func(tx *gorm.DB) error {
			created, updated, rowErrs = 0, 0, nil
			for _, row := range batch {
				res, err := e.applyRow(tx, catalog, row)
				var rowErr *RowError
				if errors.As(err, &rowErr) {
					rowErrs = append(rowErrs, rowErr.Error())
					continue
				}
				if err != nil {
					return &StorageError{FirstRow: first, LastRow: last, Err: err}
				}
				switch res {
				case rowCreated:
					created++
				case rowUpdated:
					updated++
				}
			}
			return nil
		})
		if err != nil {
			var se *StorageError
			if !errors.As(err, &se) {
				se = &StorageError{FirstRow: first, LastRow: last, Err: err}
			}
			out.addError(e.policy.MaxErrorsReturned, se.Error())
			log.Error().Err(se.Err).Str("catalog", catalog.String()).
				Int("first_row", first).Int("last_row", last).
				Msg("catalog import: batch rolled back")
			continue
		}

		out.Created += created
		out.Updated += updated
		for _, msg := range rowErrs {
			out.addError(e.policy.MaxErrorsReturned, msg)
		}
	}

	out.Status = StatusSuccess
	if out.ErrorCount > 0 {
		out.Status = StatusPartialSuccess
	}
	return out
}

func (e *Executor) applyRow(tx *gorm.DB, catalog model.Catalog, row Row) (rowResult, error) {
	cmd, err := e.normalizer.Normalize(row)
	if err != nil {
		return 0, err
	}

	cat, err := e.resolveCategory(tx, catalog, cmd)
	if err != nil {
		return 0, err
	}

	existing, err := e.products.FindByNameTx(tx, catalog, cmd.Name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p := &model.Product{
			Catalog:     catalog,
			Name:        cmd.Name,
			Description: cmd.Description,
			Price:       cmd.Price,
			CategoryID:  cat.ID,
			Stock:       model.DefaultStock,
			Active:      true,
		}
		created, err := e.products.CreateTx(tx, p)
		if err != nil {
			return 0, fmt.Errorf("create product %q: %w", cmd.Name, err)
		}
		if created {
			return rowCreated, nil
		}
		// Lost a race with a concurrent import: update the row that won.
		existing, err = e.products.FindByNameTx(tx, catalog, cmd.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("find product %q: %w", cmd.Name, err)
	}

	if err := e.products.UpdateDetailsTx(tx, existing.ID, cmd.Description, cmd.Price, cat.ID); err != nil {
		return 0, fmt.Errorf("update product %q: %w", cmd.Name, err)
	}
	if !existing.Price.Equal(cmd.Price) {
		h := &model.PriceHistory{
			ProductID:   existing.ID,
			PriceBefore: existing.Price,
			PriceAfter:  cmd.Price,
			Source:      model.PriceSourceImport,
		}
		if err := e.history.CreateTx(tx, h); err != nil {
			return 0, fmt.Errorf("record price change for %q: %w", cmd.Name, err)
		}
	}
	return rowUpdated, nil
}

func (e *Executor) resolveCategory(tx *gorm.DB, catalog model.Catalog, cmd UpsertCommand) (*model.Category, error) {
	cat, err := e.categories.FindByNameTx(tx, catalog, cmd.Category)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c := &model.Category{Catalog: catalog, Name: cmd.Category, Active: true}
		created, err := e.categories.CreateTx(tx, c)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", cmd.Category, err)
		}
		if created {
			return c, nil
		}
		cat, err = e.categories.FindByNameTx(tx, catalog, cmd.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", cmd.Category, err)
	}
	if !cat.Active {
		return nil, rowErrorf(cmd.Row, "category %q is inactive", cmd.Category)
	}
	return cat, nil
}
