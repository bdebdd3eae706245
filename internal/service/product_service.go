package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductService defines the business logic contract for products.
type ProductService interface {
	Create(ctx context.Context, catalog model.Catalog, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error
	Reactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error
	UploadImage(ctx context.Context, catalog model.Catalog, id uuid.UUID, img ImageUpload) (*dto.ProductResponse, error)
	AdjustStock(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.AdjustStockRequest) (*dto.StockAdjustmentResponse, error)
	ListPriceHistory(ctx context.Context, catalog model.Catalog, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error)
}

// ImageUpload is a product picture received from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	movements  repository.StockMovementRepository
	history    repository.PriceHistoryRepository
	storage    infra.ObjectStorage // nil when S3 is not configured
}

func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	movements repository.StockMovementRepository,
	history repository.PriceHistoryRepository,
	storage infra.ObjectStorage,
) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		movements:  movements,
		history:    history,
		storage:    storage,
	}
}

func (s *productService) Create(ctx context.Context, catalog model.Catalog, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	category, err := s.resolveCategory(ctx, catalog, req.CategoryID)
	if err != nil {
		return nil, err
	}

	stock := model.DefaultStock
	if req.Stock != nil {
		stock = *req.Stock
	}
	p := &model.Product{
		Catalog:     catalog,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		CategoryID:  category.ID,
		Stock:       stock,
		Active:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "a product with that name already exists"}
		}
		return nil, err
	}
	p.Category = category
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, catalog model.Catalog, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, catalog, id)
	if err != nil {
		return nil, mapNotFound(err, "product", id)
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, len(products))
	for i := range products {
		data[i] = *productToResponse(&products[i])
	}
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}
	return &dto.ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Update applies a partial update. A price change is recorded in the price history
// in the same transaction.
func (s *productService) Update(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, catalog, id)
	if err != nil {
		return nil, mapNotFound(err, "product", id)
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CategoryID != nil {
		category, err := s.resolveCategory(ctx, catalog, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		p.CategoryID = category.ID
		p.Category = category
	}

	var priceChange *model.PriceHistory
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, invalid("price", "must not be negative")
		}
		newPrice := req.Price.Round(2)
		if !newPrice.Equal(p.Price) {
			priceChange = &model.PriceHistory{
				ProductID:   p.ID,
				PriceBefore: p.Price,
				PriceAfter:  newPrice,
				Source:      model.PriceSourceManual,
			}
			p.Price = newPrice
		}
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		if priceChange != nil {
			return s.history.CreateTx(tx, priceChange)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &ConflictError{Message: "a product with that name already exists"}
	}
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	return mapNotFound(s.repo.SoftDelete(ctx, catalog, id), "product", id)
}

func (s *productService) Reactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	return mapNotFound(s.repo.Reactivate(ctx, catalog, id), "product", id)
}

// UploadImage stores the picture under products/<id>/<unix-nanos><ext> and points the
// product at its public URL.
func (s *productService) UploadImage(ctx context.Context, catalog model.Catalog, id uuid.UUID, img ImageUpload) (*dto.ProductResponse, error) {
	if s.storage == nil {
		return nil, errors.New("object storage is not configured")
	}
	ext, ok := allowedImageTypes[img.ContentType]
	if !ok {
		return nil, invalid("image", "must be a JPEG, PNG or WebP file")
	}

	p, err := s.repo.FindByID(ctx, catalog, id)
	if err != nil {
		return nil, mapNotFound(err, "product", id)
	}

	key := path.Join("products", p.ID.String(), fmt.Sprintf("%d%s", time.Now().UnixNano(), ext))
	url, err := s.storage.Put(ctx, key, img.ContentType, img.Body, img.Size)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if err := s.repo.SetImageURL(ctx, p.ID, url); err != nil {
		return nil, err
	}
	log.Info().Str("product_id", p.ID.String()).Str("key", key).Msg("product image uploaded")

	p.ImageURL = &url
	return productToResponse(p), nil
}

// AdjustStock applies a manual delta under a row lock. The result is floored at zero
// and the movement records the delta actually applied.
func (s *productService) AdjustStock(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.AdjustStockRequest) (*dto.StockAdjustmentResponse, error) {
	if req.Delta == 0 {
		return nil, invalid("delta", "must not be zero")
	}
	if _, err := s.repo.FindByID(ctx, catalog, id); err != nil {
		return nil, mapNotFound(err, "product", id)
	}

	var before, after int
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		before, err = s.repo.LockStockTx(tx, id)
		if err != nil {
			return err
		}
		if req.Delta > 0 {
			err = s.repo.IncrementStockTx(tx, id, req.Delta)
			after = before + req.Delta
		} else {
			err = s.repo.DecrementStockTx(tx, id, -req.Delta)
			after = before + req.Delta
			if after < 0 {
				after = 0
			}
		}
		if err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   id,
			Kind:        model.MovementManualAdjustment,
			Quantity:    after - before,
			StockBefore: before,
			StockAfter:  after,
			Reason:      req.Reason,
		})
	})
	if err != nil {
		return nil, mapNotFound(err, "product", id)
	}
	return &dto.StockAdjustmentResponse{ProductID: id.String(), StockBefore: before, StockAfter: after}, nil
}

func (s *productService) ListPriceHistory(ctx context.Context, catalog model.Catalog, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error) {
	if _, err := s.repo.FindByID(ctx, catalog, id); err != nil {
		return nil, mapNotFound(err, "product", id)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, total, err := s.history.ListByProduct(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PriceHistoryItem, len(rows))
	for i, h := range rows {
		items[i] = dto.PriceHistoryItem{
			ID:          h.ID.String(),
			ProductID:   h.ProductID.String(),
			PriceBefore: h.PriceBefore,
			PriceAfter:  h.PriceAfter,
			Source:      h.Source,
			CreatedAt:   h.CreatedAt.Format(time.RFC3339),
		}
	}
	return &dto.PriceHistoryListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// resolveCategory parses raw and requires an active category in catalog.
func (s *productService) resolveCategory(ctx context.Context, catalog model.Catalog, raw string) (*model.Category, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid("category_id", "must be a UUID")
	}
	c, err := s.categories.FindByID(ctx, catalog, id)
	if err != nil {
		return nil, mapNotFound(err, "category", id)
	}
	if !c.Active {
		return nil, invalid("category_id", "category is inactive")
	}
	return c, nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID.String(),
		Catalog:     p.Catalog.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID.String(),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	return resp
}
