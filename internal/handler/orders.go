package handler

import (
	"errors"
	"net/http"

	"sipndash/internal/apierror"
	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Place godoc
// @Summary      Place a storefront order
// @Description  Validates items and total, triggers an M-Pesa STK push when paymentMethod is mpesa,
// @Description  then stores customer, order, items and stock movements in one transaction.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body body dto.PlaceOrderRequest true "Order"
// @Success      201  {object} dto.OrderCreatedResponse
// @Failure      400  {object} apierror.APIError
// @Failure      429  {object} apierror.APIError
// @Router       /v1/orders [post]
func (h *OrdersHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !bindAndValidateStrict(c, &req) {
		return
	}
	resp, err := h.svc.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		// The storefront treats an unknown product as a bad request, not a missing resource.
		var nf *service.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusBadRequest, apierror.New(nf.Error()))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Processing | Delivered | Cancelled"
// @Param        seen   query string false "true | false"
// @Param        page   query int    false "page (default 1)"
// @Param        limit  query int    false "page size (default 50, max 200)"
// @Success      200 {object} dto.OrderListResponse
// @Router       /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update order status or seen flag
// @Description  Cancelling restores stock once. A cancelled order cannot be re-opened.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "order uuid"
// @Param        body body dto.UpdateOrderRequest true "Changes"
// @Success      200  {object} dto.OrderResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/orders/{id} [patch]
func (h *OrdersHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidateStrict(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
