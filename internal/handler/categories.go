package handler

import (
	"net/http"

	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoriesHandler struct{ svc service.CategoryService }

func NewCategoriesHandler(svc service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

// List godoc
// @Summary List the categories of a catalog
// @Tags categories
// @Produce json
// @Param catalog path string true "drinks | cocktails"
// @Param all query bool false "include inactive categories"
// @Success 200 {array} dto.CategoryResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/catalogs/{catalog}/categories [get]
func (h *CategoriesHandler) List(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), catalog, c.Query("all") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Create(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	var req dto.CreateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), catalog, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CategoriesHandler) Update(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), catalog, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Deactivate(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), catalog, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
