package dto

import "github.com/shopspring/decimal"

// PriceHistoryItem is one row in the price-history list.
type PriceHistoryItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	Source      string          `json:"source"`
	CreatedAt   string          `json:"created_at"`
}

// PriceHistoryListResponse is returned by GET /v1/catalogs/:catalog/products/:id/price-history.
type PriceHistoryListResponse struct {
	Data  []PriceHistoryItem `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
