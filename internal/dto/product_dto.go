package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=100"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"       validate:"min=0"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	Stock       *int            `json:"stock"       validate:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
}

// AdjustStockRequest applies a signed delta to a product's stock. The result is floored at zero.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required,ne=0"`
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Catalog    string `form:"-"`
	Name       string `form:"name"`
	CategoryID string `form:"category_id"`
	Active     string `form:"active"` // "" = active only, "false" = inactive, "all"
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string          `json:"id"`
	Catalog      string          `json:"catalog"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Stock        int             `json:"stock"`
	ImageURL     *string         `json:"image_url"`
	Active       bool            `json:"active"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type StockAdjustmentResponse struct {
	ProductID   string `json:"product_id"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
}
