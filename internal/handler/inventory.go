package handler

import (
	"net/http"

	"sipndash/internal/apierror"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ListMovements godoc
// @Summary Stock movement log, newest first
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param product_id query string false "filter by product uuid"
// @Param page query int false "page (default 1)"
// @Param limit query int false "page size (default 50, max 200)"
// @Success 200 {object} dto.StockMovementListResponse
// @Router /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var productID *uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
			return
		}
		productID = &id
	}
	page, limit := pageParams(c)
	resp, err := h.svc.ListMovements(c.Request.Context(), productID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
