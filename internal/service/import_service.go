package service

import (
	"context"
	"io"

	"sipndash/internal/catalogimport"
	"sipndash/internal/model"
	"sipndash/internal/repository"
)

// ImportService runs the bulk catalog import against the real repositories.
type ImportService interface {
	Import(ctx context.Context, catalog model.Catalog, filename string, r io.Reader) (*catalogimport.Outcome, error)
}

type importService struct {
	importer *catalogimport.Importer
}

func NewImportService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	history repository.PriceHistoryRepository,
	policy catalogimport.Policy,
) ImportService {
	runTx := catalogimport.GormTxRunner(products.DB())
	return &importService{
		importer: catalogimport.NewImporter(categories, products, history, runTx, policy),
	}
}

func (s *importService) Import(ctx context.Context, catalog model.Catalog, filename string, r io.Reader) (*catalogimport.Outcome, error) {
	return s.importer.Import(ctx, catalog, filename, r)
}
