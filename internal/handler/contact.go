package handler

import (
	"net/http"

	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct{ svc service.ContactService }

func NewContactHandler(svc service.ContactService) *ContactHandler { return &ContactHandler{svc: svc} }

// Submit godoc
// @Summary Send a message from the storefront contact form
// @Tags contact
// @Accept json
// @Produce json
// @Param body body dto.CreateContactRequest true "Message"
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} apierror.ValidationError
// @Router /v1/contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.CreateContactRequest
	if !bindAndValidateStrict(c, &req) {
		return
	}
	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ContactHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	data, total, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total})
}
