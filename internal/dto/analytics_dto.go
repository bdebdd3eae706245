package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type RecordEventRequest struct {
	EventType string          `json:"event_type" validate:"required,max=50"`
	EventData json.RawMessage `json:"event_data"`
	UserID    *string         `json:"user_id"    validate:"omitempty,max=100"`
}

type TopProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AnalyticsSummaryResponse struct {
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	RecentOrders  []OrderResponse `json:"recent_orders"`
	TopProducts   []TopProduct    `json:"top_products"`
	EventsPerDay  []DailyCount    `json:"events_per_day"`
}
