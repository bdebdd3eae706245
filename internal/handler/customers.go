package handler

import (
	"net/http"

	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type CustomersHandler struct{ svc service.CustomerService }

func NewCustomersHandler(svc service.CustomerService) *CustomersHandler {
	return &CustomersHandler{svc: svc}
}

// List godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        q      query string false "Search name, email or phone"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200    {object} dto.CustomerListResponse
// @Router       /v1/customers [get]
func (h *CustomersHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	resp, err := h.svc.List(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Customer ID"
// @Success      200  {object} dto.CustomerResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/customers/{id} [get]
func (h *CustomersHandler) Get(c *gin.Context) {
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
