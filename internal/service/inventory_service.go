package service

import (
	"context"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/repository"

	"github.com/google/uuid"
)

// InventoryService exposes the append-only stock movement ledger.
type InventoryService interface {
	ListMovements(ctx context.Context, productID *uuid.UUID, page, limit int) (*dto.StockMovementListResponse, error)
}

type inventoryService struct {
	movements repository.StockMovementRepository
}

func NewInventoryService(movements repository.StockMovementRepository) InventoryService {
	return &inventoryService{movements: movements}
}

func (s *inventoryService) ListMovements(ctx context.Context, productID *uuid.UUID, page, limit int) (*dto.StockMovementListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	filter := repository.StockMovementFilter{ProductID: productID, Page: page, Limit: limit}
	rows, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StockMovementItem, len(rows))
	for i, m := range rows {
		item := dto.StockMovementItem{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
		if m.Product != nil {
			item.ProductName = m.Product.Name
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			item.ReferenceID = &ref
		}
		items[i] = item
	}
	return &dto.StockMovementListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
