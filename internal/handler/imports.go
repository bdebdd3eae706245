package handler

import (
	"errors"
	"net/http"

	"sipndash/internal/apierror"
	"sipndash/internal/catalogimport"
	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	svc      service.ImportService
	maxBytes int64
}

func NewImportHandler(svc service.ImportService, maxUploadMB int64) *ImportHandler {
	return &ImportHandler{svc: svc, maxBytes: maxUploadMB << 20}
}

// Import godoc
// @Summary      Bulk import a catalog from CSV or XLSX
// @Description  Rows are upserted by product name in batches. Row errors are collected and
// @Description  reported with HTTP 206; a missing header or an unreadable file rejects the upload.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        catalog path     string true "drinks | cocktails"
// @Param        file    formData file   true "CSV or XLSX with name, price, category columns"
// @Success      200 {object} dto.ImportResponse
// @Success      206 {object} dto.ImportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/catalogs/{catalog}/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	catalog, ok := catalogParam(c)
	if !ok {
		return
	}
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field 'file' is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("cannot read uploaded file"))
		return
	}
	defer f.Close()

	out, err := h.svc.Import(c.Request.Context(), catalog, fh.Filename, f)
	if err != nil {
		var (
			decodeErr *catalogimport.DecodeError
			schemaErr *catalogimport.SchemaError
		)
		switch {
		case errors.Is(err, catalogimport.ErrUnsupportedFileType),
			errors.As(err, &decodeErr),
			errors.As(err, &schemaErr):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		default:
			respondError(c, err)
		}
		return
	}

	status := http.StatusOK
	if out.Status == catalogimport.StatusPartialSuccess {
		status = http.StatusPartialContent
	}
	c.JSON(status, dto.ImportResponse{
		Status:     out.Status,
		Created:    out.Created,
		Updated:    out.Updated,
		Errors:     out.Errors,
		ErrorCount: out.ErrorCount,
	})
}
