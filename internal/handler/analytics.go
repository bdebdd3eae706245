package handler

import (
	"net/http"

	"sipndash/internal/dto"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) RecordEvent(c *gin.Context) {
	var req dto.RecordEventRequest
	if !bindAndValidateStrict(c, &req) {
		return
	}
	if err := h.svc.RecordEvent(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Summary godoc
// @Summary Dashboard totals, recent orders, top products and events per day (30 days)
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AnalyticsSummaryResponse
// @Router /v1/analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
