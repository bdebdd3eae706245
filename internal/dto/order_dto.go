package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OrderItemRequest references a product by id. Field names follow the storefront payload.
type OrderItemRequest struct {
	ID       string `json:"id"       validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type PlaceOrderRequest struct {
	Name          string             `json:"name"          validate:"required,max=255"`
	Email         string             `json:"email"         validate:"required,email"`
	Phone         string             `json:"phone"         validate:"required,max=20"`
	Address       string             `json:"address"       validate:"required"`
	Latitude      *float64           `json:"latitude"      validate:"required,latitude"`
	Longitude     *float64           `json:"longitude"     validate:"required,longitude"`
	Items         []OrderItemRequest `json:"items"         validate:"required,min=1,dive"`
	Total         *decimal.Decimal   `json:"total"         validate:"required,gt=0"`
	PaymentMethod string             `json:"paymentMethod" validate:"omitempty,oneof=cash mpesa"`
	DeliveryFee   decimal.Decimal    `json:"deliveryFee"   validate:"min=0"`
	Tax           decimal.Decimal    `json:"tax"           validate:"min=0"`
}

// UpdateOrderRequest is a partial update; absent fields are left untouched.
type UpdateOrderRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=Processing Delivered Cancelled"`
	Seen   *bool   `json:"seen"`
}

type OrderFilter struct {
	Status string `form:"status"`
	Seen   string `form:"seen"` // "true" | "false" | "" (any)
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderCreatedResponse struct {
	Message           string `json:"message"`
	OrderID           string `json:"order_id"`
	PaymentStatus     string `json:"payment_status"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
}

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CustomerResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Customer      *CustomerResponse   `json:"customer,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Tax           decimal.Decimal     `json:"tax"`
	Status        string              `json:"status"`
	Seen          bool                `json:"seen"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Latitude      *float64            `json:"latitude"`
	Longitude     *float64            `json:"longitude"`
	CreatedAt     string              `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
