package handler

import (
	"net/http"

	"sipndash/internal/dto"
	"sipndash/internal/middleware"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

var callbackAccepted = dto.STKCallbackAck{ResultCode: 0, ResultDesc: "Accepted"}

// MpesaCallback godoc
// @Summary      Daraja STK push result callback
// @Description  Always acknowledged; Daraja does not retry on error responses. Unmatched or
// @Description  failed callbacks are logged and left to the reconciliation job.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body body dto.STKCallbackEnvelope true "Daraja callback"
// @Success      200  {object} dto.STKCallbackAck
// @Router       /v1/payments/mpesa/callback [post]
func (h *PaymentsHandler) MpesaCallback(c *gin.Context) {
	var env dto.STKCallbackEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		log.Warn().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("mpesa: unreadable callback")
		c.JSON(http.StatusOK, callbackAccepted)
		return
	}

	cb := env.Body.STKCallback
	if err := h.svc.HandleCallback(c.Request.Context(), cb); err != nil {
		log.Error().Err(err).
			Str("checkout_request_id", cb.CheckoutRequestID).
			Int("result_code", cb.ResultCode).
			Msg("mpesa: callback not applied")
	}
	c.JSON(http.StatusOK, callbackAccepted)
}
