package dto

import "time"

type CreateOfferRequest struct {
	Title        string    `json:"title"         validate:"required,max=50"`
	Description  string    `json:"description"`
	Category     string    `json:"category"      validate:"max=50"`
	Discount     string    `json:"discount"      validate:"max=50"`
	Code         string    `json:"code"          validate:"max=50"`
	DiscountType string    `json:"discount_type" validate:"omitempty,oneof=percentage fixed bogo"`
	EndDate      time.Time `json:"end_date"      validate:"required"`
}

type UpdateOfferRequest struct {
	Title        *string    `json:"title"         validate:"omitempty,max=50"`
	Description  *string    `json:"description"`
	Category     *string    `json:"category"      validate:"omitempty,max=50"`
	Discount     *string    `json:"discount"      validate:"omitempty,max=50"`
	Code         *string    `json:"code"          validate:"omitempty,max=50"`
	DiscountType *string    `json:"discount_type" validate:"omitempty,oneof=percentage fixed bogo"`
	EndDate      *time.Time `json:"end_date"`
}

type OfferResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Discount     string `json:"discount"`
	Code         string `json:"code"`
	DiscountType string `json:"discount_type"`
	EndDate      string `json:"end_date"`
}
