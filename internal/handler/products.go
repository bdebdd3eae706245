package handler

import (
	"net/http"

	"sipndash/internal/apierror"
	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImageBytes caps product image uploads.
const maxImageBytes = 5 << 20

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) Create(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	var req dto.CreateProductRequest
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

// List godoc
// @Summary List the products of a catalog
// @Tags products
// @Produce json
// @Param catalog path string true "drinks | cocktails"
// @Param name query string false "name contains"
// @Param category_id query string false "category uuid"
// @Param page query int false "page (default 1)"
// @Param limit query int false "page size (default 20, max 100)"
// @Success 200 {object} dto.ProductListResponse
// @Router /v1/catalogs/{catalog}/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	filter.Catalog = catalog.String()
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), catalog, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
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

func (h *ProductsHandler) Deactivate(c *gin.Context) {
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

func (h *ProductsHandler) Reactivate(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Reactivate(c.Request.Context(), catalog, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload a product picture to object storage
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param catalog path string true "drinks | cocktails"
// @Param id path string true "product uuid"
// @Param image formData file true "JPEG, PNG or WebP, max 5 MB"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/catalogs/{catalog}/products/{id}/image [put]
func (h *ProductsHandler) UploadImage(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+(1<<20))
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field 'image' is required"))
		return
	}
	if fh.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, apierror.New("image exceeds 5 MB"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("cannot read image"))
		return
	}
	defer f.Close()

	resp, err := h.svc.UploadImage(c.Request.Context(), catalog, id, service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), catalog, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) PriceHistory(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)
	resp, err := h.svc.ListPriceHistory(c.Request.Context(), catalog, id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
