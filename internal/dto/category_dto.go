package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateCategoryRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=50"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Catalog     string    `json:"catalog"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
}
